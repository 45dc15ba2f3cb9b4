package thumbnails

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"kitsusync/internal/fileutil"
	"kitsusync/internal/logging"
	"kitsusync/internal/services"
)

// Fetcher downloads a thumbnail body from an API-relative path.
type Fetcher interface {
	GetBytes(ctx context.Context, path string) ([]byte, error)
}

// Recorder receives one call per completed download.
type Recorder interface {
	RecordImage(ctx context.Context, remote, local string, size int64) error
}

// Job is one thumbnail to bring up to date.
type Job struct {
	Remote string
	Local  string
}

// Stats summarizes a batch.
type Stats struct {
	Downloaded int
	Skipped    int
}

// Syncer downloads thumbnails that are missing on disk.
type Syncer struct {
	fetcher  Fetcher
	recorder Recorder
	logger   *slog.Logger
	workers  int
	force    bool

	downloads atomic.Int64
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithWorkers bounds the number of concurrent downloads in SyncAll.
func WithWorkers(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithForce re-downloads files that already exist.
func WithForce(force bool) Option {
	return func(s *Syncer) { s.force = force }
}

// WithRecorder reports each download to r.
func WithRecorder(r Recorder) Option {
	return func(s *Syncer) { s.recorder = r }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSyncer constructs a Syncer that downloads through fetcher.
func NewSyncer(fetcher Fetcher, opts ...Option) *Syncer {
	s := &Syncer{
		fetcher: fetcher,
		logger:  logging.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Downloads returns the number of network downloads performed so far.
func (s *Syncer) Downloads() int64 {
	return s.downloads.Load()
}

// Sync downloads remote into local when local is absent or force is set.
// It reports whether a download happened.
func (s *Syncer) Sync(ctx context.Context, remote, local string, force bool) (bool, error) {
	exists, err := fileutil.Exists(local)
	if err != nil {
		return false, services.Wrap(services.ErrFilesystem, "thumbnails", "stat", local, err)
	}
	if exists && !force {
		return false, nil
	}

	data, err := s.fetcher.GetBytes(ctx, remote)
	if err != nil {
		return false, err
	}
	if err := fileutil.WriteFileAtomic(local, data, 0o644); err != nil {
		return false, services.Wrap(services.ErrFilesystem, "thumbnails", "write", local, err)
	}
	s.downloads.Add(1)
	s.logger.Debug("thumbnail downloaded",
		logging.String("remote", remote),
		logging.String("local", local),
		logging.Int("bytes", len(data)),
	)

	if s.recorder != nil {
		if err := s.recorder.RecordImage(ctx, remote, local, int64(len(data))); err != nil {
			logging.WarnWithContext(s.logger, "failed to record thumbnail download", "ledger_write_failed",
				logging.String("local", local),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the ledger database path and permissions"),
				logging.String(logging.FieldImpact, "run history misses this image"),
			)
		}
	}
	return true, nil
}

// SyncAll brings every job up to date with at most the configured number of
// concurrent downloads. Jobs sharing a local path are synced once. The first
// failure cancels the remaining jobs.
func (s *Syncer) SyncAll(ctx context.Context, jobs []Job) (Stats, error) {
	unique := make([]Job, 0, len(jobs))
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if _, ok := seen[job.Local]; ok {
			continue
		}
		seen[job.Local] = struct{}{}
		unique = append(unique, job)
	}

	var downloaded, skipped atomic.Int64
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, job := range unique {
		group.Go(func() error {
			did, err := s.Sync(gctx, job.Remote, job.Local, s.force)
			if err != nil {
				return fmt.Errorf("sync %s: %w", job.Remote, err)
			}
			if did {
				downloaded.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}
	err := group.Wait()
	return Stats{Downloaded: int(downloaded.Load()), Skipped: int(skipped.Load())}, err
}
