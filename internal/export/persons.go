package export

import (
	"context"

	"kitsusync/internal/thumbnails"
)

// FetchPersons fetches every person and syncs avatars. Persons without an
// avatar point at the configured placeholder.
func (e *Exporter) FetchPersons(ctx context.Context) ([]Person, error) {
	records, err := e.api.Persons(ctx)
	if err != nil {
		return nil, err
	}

	colors := newColorAssigner(e.cfg.Export.PersonColors)
	var jobs []thumbnails.Job
	persons := make([]Person, 0, len(records))
	for _, record := range records {
		picture := e.cfg.Export.PersonPlaceholder
		if record.HasAvatar {
			jobs = append(jobs, e.thumbnailJob(thumbnails.CategoryPersons, record.ID))
			picture = e.layout.WebPath(thumbnails.CategoryPersons, record.ID)
		}
		persons = append(persons, Person{
			Name:           record.FullName,
			ID:             record.ID,
			ProfilePicture: picture,
			Color:          colors.colorFor(record.ID),
		})
	}
	if err := e.syncImages(ctx, jobs); err != nil {
		return nil, err
	}
	return persons, nil
}
