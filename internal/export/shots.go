package export

import (
	"context"
	"fmt"
	"sort"

	"kitsusync/internal/logging"
	"kitsusync/internal/services"
	"kitsusync/internal/thumbnails"
)

// FetchShots fetches a project's shots with tasks, syncs their previews and
// returns them sorted by start frame. Shots without frame_in in their data are
// skipped. A shot with frame_in but no frame_out is an upstream error.
func (e *Exporter) FetchShots(ctx context.Context, projectID string, fps float64) ([]Shot, error) {
	logger := logging.WithContext(ctx, e.logger)
	if fps <= 0 {
		return nil, services.Wrap(services.ErrUpstream, "export", "shots", "fps must be positive", nil)
	}

	records, err := e.api.ShotsWithTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var jobs []thumbnails.Job
	shots := make([]Shot, 0, len(records))
	for _, record := range records {
		frameIn, frameOut, err := record.Frames()
		if err != nil {
			return nil, services.Wrap(services.ErrUpstream, "export", "shots", record.Name, err)
		}
		if frameIn == nil {
			logger.Info("skipping shot with no frame_in data", logging.String("shot", record.Name))
			e.summary.SkippedShots++
			continue
		}
		if frameOut == nil {
			return nil, services.Wrap(services.ErrUpstream, "export", "shots",
				fmt.Sprintf("shot %s has frame_in but no frame_out", record.Name), nil)
		}

		var thumbnail *string
		if record.PreviewFileID != "" {
			jobs = append(jobs, e.thumbnailJob(thumbnails.CategoryPreviewFiles, record.PreviewFileID))
			web := e.layout.WebPath(thumbnails.CategoryPreviewFiles, record.PreviewFileID)
			thumbnail = &web
		}

		start, end := frameIn.Int(), frameOut.Int()
		shots = append(shots, Shot{
			ID:              record.ID,
			Name:            record.Name,
			ThumbnailURL:    thumbnail,
			StartFrame:      start,
			DurationSeconds: float64(end-start) / fps,
			Tasks:           exportTasks(record.Tasks),
			SequenceID:      record.SequenceID,
			Data:            record.Data,
			FrameOut:        end,
		})
	}

	if err := e.syncImages(ctx, jobs); err != nil {
		return nil, err
	}
	SortShots(shots)
	logger.Debug("processed shots", logging.Int("count", len(shots)))
	return shots, nil
}

// SortShots orders shots by start frame, keeping upstream order for ties.
func SortShots(shots []Shot) {
	sort.SliceStable(shots, func(i, j int) bool {
		return shots[i].StartFrame < shots[j].StartFrame
	})
}
