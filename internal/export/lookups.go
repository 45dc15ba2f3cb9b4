package export

import (
	"context"
	"log/slog"

	"kitsusync/internal/logging"
)

// FetchLookups writes asset-types.json, task-types.json and task-status.json.
// Task colors are converted from hex to RGBA floats; an unparsable color is
// exported as null.
func (e *Exporter) FetchLookups(ctx context.Context) error {
	logger := logging.WithContext(ctx, e.logger)

	assetTypes, err := e.api.AssetTypes(ctx)
	if err != nil {
		return err
	}
	outTypes := make([]AssetType, 0, len(assetTypes))
	for _, item := range assetTypes {
		outTypes = append(outTypes, AssetType{Name: item.Name, ID: item.ID})
	}

	taskTypes, err := e.api.TaskTypes(ctx)
	if err != nil {
		return err
	}
	outTaskTypes := make([]TaskType, 0, len(taskTypes))
	for _, item := range taskTypes {
		outTaskTypes = append(outTaskTypes, TaskType{
			Name:     item.Name,
			Color:    e.lookupColor(logger, item.ID, item.Color),
			ID:       item.ID,
			ForShots: item.ForShots,
		})
	}

	statuses, err := e.api.TaskStatuses(ctx)
	if err != nil {
		return err
	}
	outStatuses := make([]TaskStatus, 0, len(statuses))
	for _, item := range statuses {
		outStatuses = append(outStatuses, TaskStatus{
			Name:  item.Name,
			Color: e.lookupColor(logger, item.ID, item.Color),
			ID:    item.ID,
		})
	}

	documents := []struct {
		name string
		data any
	}{
		{"asset-types", outTypes},
		{"task-types", outTaskTypes},
		{"task-status", outStatuses},
	}
	for _, doc := range documents {
		if _, err := e.writer.WriteRoot(doc.name, doc.data); err != nil {
			return err
		}
	}
	logger.Info("saved lookups",
		logging.Int("asset_types", len(outTypes)),
		logging.Int("task_types", len(outTaskTypes)),
		logging.Int("task_statuses", len(outStatuses)),
	)
	return nil
}

func (e *Exporter) lookupColor(logger *slog.Logger, id, hex string) []float64 {
	color, err := HexToRGBA(hex)
	if err != nil {
		logging.WarnWithContext(logger, "unparsable lookup color", "lookup_color_invalid",
			logging.String("id", id),
			logging.String("color", hex),
			logging.String(logging.FieldErrorHint, "set a #rrggbb color on the task type or status in Kitsu"),
			logging.String(logging.FieldImpact, "color exported as null"),
		)
		return nil
	}
	return color
}
