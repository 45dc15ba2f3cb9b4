package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"kitsusync/internal/config"
	"kitsusync/internal/kitsu"
	"kitsusync/internal/logging"
	"kitsusync/internal/services"
	"kitsusync/internal/thumbnails"
)

// Source is the subset of the Kitsu client the export reads from.
type Source interface {
	Authenticated() bool
	Authenticate(ctx context.Context, email, password string) error
	UserContext(ctx context.Context) (*kitsu.UserContext, error)
	ProjectDetail(ctx context.Context, projectID string) (json.RawMessage, error)
	Sequences(ctx context.Context, projectID string) ([]kitsu.Sequence, error)
	ShotsWithTasks(ctx context.Context, projectID string) ([]kitsu.Shot, error)
	AssetsWithTasks(ctx context.Context, projectID string) ([]kitsu.Asset, error)
	Persons(ctx context.Context) ([]kitsu.Person, error)
	AssetTypes(ctx context.Context) ([]kitsu.AssetType, error)
	TaskTypes(ctx context.Context) ([]kitsu.TaskType, error)
	TaskStatuses(ctx context.Context) ([]kitsu.TaskStatus, error)
	Casting(ctx context.Context, projectID, sequenceID string) (json.RawMessage, error)
}

var _ Source = (*kitsu.Client)(nil)

// Syncer downloads thumbnail batches.
type Syncer interface {
	SyncAll(ctx context.Context, jobs []thumbnails.Job) (thumbnails.Stats, error)
}

// Summary describes a finished export run.
type Summary struct {
	Projects         int
	Shots            int
	SkippedShots     int
	Assets           int
	CanceledAssets   int
	Sequences        int
	CastingFiles     int
	Persons          int
	FilesWritten     int
	ImagesDownloaded int
	ImagesSkipped    int
	Duration         time.Duration
}

// Exporter runs the full export against one Kitsu server.
type Exporter struct {
	cfg     *config.Config
	api     Source
	syncer  Syncer
	writer  *Writer
	layout  thumbnails.Layout
	logger  *slog.Logger
	project string

	summary Summary
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithProjectFilter limits the per-project stage to the project whose id or
// name matches value. context.json and persons.json are still written in full.
func WithProjectFilter(value string) Option {
	return func(e *Exporter) {
		e.project = strings.TrimSpace(value)
	}
}

// New builds an Exporter from configuration.
func New(cfg *config.Config, api Source, syncer Syncer, logger *slog.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Exporter{
		cfg:    cfg,
		api:    api,
		syncer: syncer,
		writer: NewWriter(cfg.Paths.OutputDir, cfg.ProjectsRoot()),
		layout: LayoutFromConfig(cfg),
		logger: logging.NewComponentLogger(logger, "export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LayoutFromConfig returns the thumbnail layout configured for cfg.
func LayoutFromConfig(cfg *config.Config) thumbnails.Layout {
	return thumbnails.Layout{
		Root:      cfg.PreviewsRoot(),
		WebPrefix: filepath.ToSlash(cfg.Paths.PreviewsDir),
		Sharded:   cfg.Export.ThumbnailLayout == config.LayoutSharded,
	}
}

// Run performs the export: authenticate, write context and persons, write the
// lookup tables, then every project's documents and casting files.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	e.summary = Summary{}

	if err := e.authenticate(ctx); err != nil {
		return e.finish(start), err
	}

	projects, err := e.FetchContext(services.WithStage(ctx, "context"))
	if err != nil {
		return e.finish(start), err
	}

	persons, err := e.FetchPersons(services.WithStage(ctx, "persons"))
	if err != nil {
		return e.finish(start), err
	}
	if _, err := e.writer.WriteRoot("persons", persons); err != nil {
		return e.finish(start), err
	}
	e.summary.Persons = len(persons)
	e.logger.Info("saved persons", logging.Int("count", len(persons)))

	if e.cfg.Export.Lookups {
		if err := e.FetchLookups(services.WithStage(ctx, "lookups")); err != nil {
			return e.finish(start), err
		}
	}

	selected, err := e.selectProjects(projects)
	if err != nil {
		return e.finish(start), err
	}
	for _, project := range selected {
		if err := ctx.Err(); err != nil {
			return e.finish(start), err
		}
		pctx := services.WithProjectID(ctx, project.ID)
		sequences, err := e.exportProject(pctx, project)
		if err != nil {
			return e.finish(start), err
		}
		if err := e.exportCasting(services.WithStage(pctx, "casting"), project.ID, sequences); err != nil {
			return e.finish(start), err
		}
		e.summary.Projects++
	}

	summary := e.finish(start)
	e.logger.Info("export completed",
		logging.Int("projects", summary.Projects),
		logging.Int("shots", summary.Shots),
		logging.Int("assets", summary.Assets),
		logging.Int("files", summary.FilesWritten),
		logging.Int("images_downloaded", summary.ImagesDownloaded),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (e *Exporter) finish(start time.Time) Summary {
	e.summary.FilesWritten = e.writer.FilesWritten()
	e.summary.Duration = time.Since(start)
	return e.summary
}

func (e *Exporter) authenticate(ctx context.Context) error {
	if e.api.Authenticated() {
		e.logger.Debug("using pre-issued token")
		return nil
	}
	if err := e.api.Authenticate(ctx, e.cfg.Kitsu.Email, e.cfg.Kitsu.Password); err != nil {
		return err
	}
	e.logger.Info("authenticated", logging.String("user", e.cfg.Kitsu.Email))
	return nil
}

func (e *Exporter) selectProjects(projects []kitsu.ContextProject) ([]kitsu.ContextProject, error) {
	if e.project == "" {
		return projects, nil
	}
	for _, project := range projects {
		if project.ID == e.project || strings.EqualFold(project.Name, e.project) {
			return []kitsu.ContextProject{project}, nil
		}
	}
	return nil, services.Wrap(services.ErrConfiguration, "export", "select project", fmt.Sprintf("project %q not found in user context", e.project), nil)
}

func (e *Exporter) exportProject(ctx context.Context, project kitsu.ContextProject) ([]Sequence, error) {
	logger := logging.WithContext(ctx, e.logger)

	detail, err := e.api.ProjectDetail(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	fps, err := e.resolveFPS(project, detail)
	if err != nil {
		return nil, err
	}

	shots, err := e.FetchShots(services.WithStage(ctx, "shots"), project.ID, fps)
	if err != nil {
		return nil, err
	}
	sequences, err := e.FetchSequences(services.WithStage(ctx, "sequences"), project.ID)
	if err != nil {
		return nil, err
	}
	assets, err := e.FetchAssets(services.WithStage(ctx, "assets"), project.ID)
	if err != nil {
		return nil, err
	}

	documents := []struct {
		name string
		data any
	}{
		{"project", detail},
		{"shots", shots},
		{"sequences", sequences},
		{"assets", assets},
	}
	for _, doc := range documents {
		if _, err := e.writer.WriteJSON(project.ID, doc.name, doc.data); err != nil {
			return nil, err
		}
		logger.Info("saved project data", logging.String("document", doc.name))
	}

	if manifest, ok := BuildEditManifest(e.editSourceName(project.ID), e.cfg.Export.EditSourceType, shots); ok {
		if _, err := e.writer.WriteJSON(project.ID, "edit", manifest); err != nil {
			return nil, err
		}
		logger.Info("saved edit manifest",
			logging.Int("total_frames", manifest.TotalFrames),
			logging.Int("frame_offset", manifest.FrameOffset),
		)
	}

	e.summary.Shots += len(shots)
	e.summary.Assets += len(assets)
	e.summary.Sequences += len(sequences)
	return sequences, nil
}

func (e *Exporter) editSourceName(projectID string) string {
	return "/" + strings.Trim(filepath.ToSlash(e.cfg.Paths.ProjectsDir), "/") + "/" + projectID + "/edit.mp4"
}

// resolveFPS prefers the context project, then the project detail, then the
// configured default.
func (e *Exporter) resolveFPS(project kitsu.ContextProject, detail json.RawMessage) (float64, error) {
	if project.FPS != nil && project.FPS.Float() > 0 {
		return project.FPS.Float(), nil
	}
	var parsed struct {
		FPS *kitsu.Number `json:"fps"`
	}
	if err := json.Unmarshal(detail, &parsed); err != nil {
		return 0, services.Wrap(services.ErrUpstream, "export", "project fps", project.ID, err)
	}
	if parsed.FPS != nil && parsed.FPS.Float() > 0 {
		return parsed.FPS.Float(), nil
	}
	if e.cfg.Export.DefaultFPS > 0 {
		return e.cfg.Export.DefaultFPS, nil
	}
	return 0, services.Wrap(services.ErrUpstream, "export", "project fps", fmt.Sprintf("project %s has no fps and export.default_fps is unset", project.ID), nil)
}

func (e *Exporter) syncImages(ctx context.Context, jobs []thumbnails.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	stats, err := e.syncer.SyncAll(ctx, jobs)
	e.summary.ImagesDownloaded += stats.Downloaded
	e.summary.ImagesSkipped += stats.Skipped
	return err
}

func (e *Exporter) thumbnailJob(category, id string) thumbnails.Job {
	return thumbnails.Job{
		Remote: thumbnails.RemotePath(category, id),
		Local:  e.layout.LocalPath(category, id),
	}
}

func exportTasks(tasks []kitsu.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		assignees := task.Assignees
		if assignees == nil {
			assignees = []string{}
		}
		out = append(out, Task{
			TaskStatusID: task.TaskStatusID,
			TaskTypeID:   task.TaskTypeID,
			Assignees:    assignees,
		})
	}
	return out
}
