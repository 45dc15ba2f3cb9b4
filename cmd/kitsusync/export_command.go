package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kitsusync/internal/config"
	"kitsusync/internal/export"
	"kitsusync/internal/kitsu"
	"kitsusync/internal/ledger"
	"kitsusync/internal/logging"
	"kitsusync/internal/notifications"
	"kitsusync/internal/services"
	"kitsusync/internal/thumbnails"
)

type exportOptions struct {
	forceImages bool
	project     string
	output      string
	workers     int
	quiet       bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export projects, shots, assets and thumbnails from Kitsu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyExportFlags(cfg, opts); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			summary, runID, err := runExport(cmd.Context(), cfg, opts.project, logger)
			if !opts.quiet && err == nil {
				printSummary(cmd.OutOrStdout(), runID, summary)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.forceImages, "force-images", false, "Re-download thumbnails that already exist")
	cmd.Flags().StringVar(&opts.project, "project", "", "Only export the project with this id or name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Override paths.output_dir")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Override export.image_workers")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the summary table")
	return cmd
}

func applyExportFlags(cfg *config.Config, opts exportOptions) error {
	if opts.forceImages {
		cfg.Export.ForceImages = true
	}
	if opts.workers > 0 {
		cfg.Export.ImageWorkers = opts.workers
	}
	if output := strings.TrimSpace(opts.output); output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "export", "--output", output, err)
		}
		cfg.Paths.OutputDir = expanded
	}
	return nil
}

// runExport performs one locked, recorded export run.
func runExport(ctx context.Context, cfg *config.Config, project string, logger *slog.Logger) (export.Summary, string, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return export.Summary{}, "", err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return export.Summary{}, "", services.Wrap(services.ErrFilesystem, "export", "lock", cfg.LockPath(), err)
	}
	if !locked {
		return export.Summary{}, "", services.Wrap(services.ErrFilesystem, "export", "lock",
			fmt.Sprintf("another export is already running (lock %s)", cfg.LockPath()), nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logger)

	var (
		store *ledger.Store
		run   *ledger.Run
	)
	if cfg.Ledger.Enabled {
		store, err = ledger.Open(cfg.LedgerPath())
		if err != nil {
			return export.Summary{}, runID, err
		}
		defer store.Close()
		if run, err = store.BeginRun(ctx, runID, cfg.Kitsu.BaseURL, cfg.Paths.OutputDir); err != nil {
			return export.Summary{}, runID, err
		}
	}

	client, err := kitsu.New(cfg.Kitsu.BaseURL,
		kitsu.WithToken(cfg.Kitsu.Token),
		kitsu.WithTimeout(time.Duration(cfg.Kitsu.RequestTimeout)*time.Second),
		kitsu.WithLogger(logging.NewComponentLogger(logger, "kitsu")),
	)
	if err != nil {
		return export.Summary{}, runID, err
	}

	syncOpts := []thumbnails.Option{
		thumbnails.WithWorkers(cfg.Export.ImageWorkers),
		thumbnails.WithForce(cfg.Export.ForceImages),
		thumbnails.WithLogger(logging.NewComponentLogger(logger, "thumbnails")),
	}
	if run != nil {
		syncOpts = append(syncOpts, thumbnails.WithRecorder(run))
	}
	syncer := thumbnails.NewSyncer(client, syncOpts...)

	logger.Info("export started",
		logging.String("base_url", cfg.Kitsu.BaseURL),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.Int("image_workers", cfg.Export.ImageWorkers),
	)
	exporter := export.New(cfg, client, syncer, logger, export.WithProjectFilter(project))
	summary, runErr := exporter.Run(ctx)

	// Bookkeeping must survive a cancelled run context.
	bookkeeping := context.WithoutCancel(ctx)
	if store != nil {
		totals := ledger.Totals{
			Projects:         summary.Projects,
			Shots:            summary.Shots,
			Assets:           summary.Assets,
			FilesWritten:     summary.FilesWritten,
			ImagesDownloaded: summary.ImagesDownloaded,
		}
		if err := store.FinishRun(bookkeeping, runID, totals, runErr); err != nil {
			logger.Warn("failed to record run result", logging.Error(err))
		}
	}

	notifier := notifications.NewService(cfg)
	if runErr != nil {
		logger.Error("export failed", logging.Error(runErr))
		if err := notifier.NotifyExportFailed(bookkeeping, runID, runErr); err != nil {
			logger.Warn("failed to send failure notification", logging.Error(err))
		}
		return summary, runID, runErr
	}
	if err := notifier.NotifyExportCompleted(bookkeeping, notifications.ExportResult{
		RunID:            runID,
		Projects:         summary.Projects,
		Shots:            summary.Shots,
		Assets:           summary.Assets,
		ImagesDownloaded: summary.ImagesDownloaded,
		Duration:         summary.Duration,
	}); err != nil {
		logger.Warn("failed to send completion notification", logging.Error(err))
	}
	return summary, runID, nil
}

func printSummary(out io.Writer, runID string, summary export.Summary) {
	rows := [][]string{
		{"Projects", strconv.Itoa(summary.Projects)},
		{"Shots", fmt.Sprintf("%d (%d skipped)", summary.Shots, summary.SkippedShots)},
		{"Assets", fmt.Sprintf("%d (%d canceled)", summary.Assets, summary.CanceledAssets)},
		{"Sequences", strconv.Itoa(summary.Sequences)},
		{"Casting files", strconv.Itoa(summary.CastingFiles)},
		{"Persons", strconv.Itoa(summary.Persons)},
		{"Files written", strconv.Itoa(summary.FilesWritten)},
		{"Thumbnails", fmt.Sprintf("%d downloaded, %d cached", summary.ImagesDownloaded, summary.ImagesSkipped)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintln(out, renderTable([]string{"Item", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}
