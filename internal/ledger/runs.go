package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Status           string
	BaseURL          string
	OutputDir        string
	Projects         int
	Shots            int
	Assets           int
	FilesWritten     int
	ImagesDownloaded int
	ErrorMessage     string
}

// Duration returns the wall-clock length of a finished run.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals are the counters stored when a run finishes.
type Totals struct {
	Projects         int
	Shots            int
	Assets           int
	FilesWritten     int
	ImagesDownloaded int
}

// Run is an open run handle. It satisfies thumbnails.Recorder.
type Run struct {
	store *Store
	ID    string
}

// BeginRun inserts a running row and returns its handle. An empty id gets a
// fresh UUID.
func (s *Store) BeginRun(ctx context.Context, id, baseURL, outputDir string) (*Run, error) {
	if id == "" {
		id = uuid.NewString()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, status, base_url, output_dir) VALUES (?, ?, ?, ?, ?)`,
		id, formatTime(time.Now()), StatusRunning, baseURL, outputDir,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{store: s, ID: id}, nil
}

// RecordImage stores one thumbnail download.
func (r *Run) RecordImage(ctx context.Context, remote, local string, size int64) error {
	if r == nil {
		return nil
	}
	return r.store.RecordImage(ctx, r.ID, remote, local, size)
}

// RecordImage stores one thumbnail download for runID.
func (s *Store) RecordImage(ctx context.Context, runID, remote, local string, size int64) error {
	err := s.exec(ctx,
		`INSERT INTO images (run_id, remote_path, local_path, bytes, downloaded_at) VALUES (?, ?, ?, ?, ?)`,
		runID, remote, local, size, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// FinishRun closes a run with its totals. A non-nil runErr marks it failed.
func (s *Store) FinishRun(ctx context.Context, runID string, totals Totals, runErr error) error {
	status := StatusSucceeded
	message := ""
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, projects = ?, shots = ?, assets = ?,
			files_written = ?, images_downloaded = ?, error_message = ?
		WHERE id = ?`,
		formatTime(time.Now()), status, totals.Projects, totals.Shots, totals.Assets,
		totals.FilesWritten, totals.ImagesDownloaded, message, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, started_at, finished_at, status, base_url, output_dir, projects, shots,
		assets, files_written, images_downloaded, error_message
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec      RunRecord
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Status, &rec.BaseURL, &rec.OutputDir,
			&rec.Projects, &rec.Shots, &rec.Assets, &rec.FilesWritten, &rec.ImagesDownloaded, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = parseTime(started)
		if finished.Valid {
			rec.FinishedAt = parseTime(finished.String)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// ImageCount returns the number of downloads recorded for runID.
func (s *Store) ImageCount(ctx context.Context, runID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM images WHERE run_id = ?`, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
