package export

import (
	"context"

	"kitsusync/internal/logging"
	"kitsusync/internal/thumbnails"
)

// FetchAssets fetches a project's assets with tasks and syncs their previews.
// Canceled assets are dropped; assets without a preview use the placeholder.
func (e *Exporter) FetchAssets(ctx context.Context, projectID string) ([]Asset, error) {
	records, err := e.api.AssetsWithTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var jobs []thumbnails.Job
	assets := make([]Asset, 0, len(records))
	for _, record := range records {
		if record.Canceled {
			e.summary.CanceledAssets++
			continue
		}
		thumbnail := e.cfg.Export.AssetPlaceholder
		if record.PreviewFileID != "" {
			jobs = append(jobs, e.thumbnailJob(thumbnails.CategoryPreviewFiles, record.PreviewFileID))
			thumbnail = e.layout.WebPath(thumbnails.CategoryPreviewFiles, record.PreviewFileID)
		}
		assets = append(assets, Asset{
			ID:           record.ID,
			AssetTypeID:  record.AssetTypeID,
			Name:         record.Name,
			ThumbnailURL: thumbnail,
			Tasks:        exportTasks(record.Tasks),
		})
	}

	if err := e.syncImages(ctx, jobs); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, e.logger).Debug("processed assets", logging.Int("count", len(assets)))
	return assets, nil
}
