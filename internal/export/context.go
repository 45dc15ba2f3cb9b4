package export

import (
	"context"
	"encoding/json"

	"kitsusync/internal/kitsu"
	"kitsusync/internal/logging"
	"kitsusync/internal/services"
	"kitsusync/internal/thumbnails"
)

// FetchContext fetches the user context, syncs project thumbnails, writes
// context.json and returns the projects to export. Persons are reduced to
// full_name, has_avatar and id; every other key passes through unchanged.
func (e *Exporter) FetchContext(ctx context.Context) ([]kitsu.ContextProject, error) {
	userContext, err := e.api.UserContext(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []thumbnails.Job
	projects := make([]map[string]json.RawMessage, 0, len(userContext.Projects))
	for _, project := range userContext.Projects {
		fields := make(map[string]json.RawMessage, len(project.Fields)+1)
		for key, value := range project.Fields {
			fields[key] = value
		}
		thumbnail := json.RawMessage("null")
		if project.HasAvatar == nil || *project.HasAvatar {
			jobs = append(jobs, e.thumbnailJob(thumbnails.CategoryProjects, project.ID))
			encoded, err := json.Marshal(e.layout.WebPath(thumbnails.CategoryProjects, project.ID))
			if err != nil {
				return nil, services.Wrap(services.ErrUpstream, "export", "context", project.ID, err)
			}
			thumbnail = encoded
		}
		fields["thumbnailUrl"] = thumbnail
		projects = append(projects, fields)
	}
	if err := e.syncImages(ctx, jobs); err != nil {
		return nil, err
	}

	persons := make([]ContextPerson, 0, len(userContext.Persons))
	for _, person := range userContext.Persons {
		persons = append(persons, ContextPerson{
			FullName:  person.FullName,
			HasAvatar: person.HasAvatar,
			ID:        person.ID,
		})
	}

	document := make(map[string]any, len(userContext.Fields))
	for key, value := range userContext.Fields {
		document[key] = value
	}
	document["projects"] = projects
	document["persons"] = persons

	if _, err := e.writer.WriteRoot("context", document); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, e.logger).Info("saved user context",
		logging.Int("projects", len(projects)),
		logging.Int("persons", len(persons)),
	)
	return userContext.Projects, nil
}
