package kitsu

import (
	"context"
	"encoding/json"
	"net/url"
)

func projectQuery(projectID string) url.Values {
	return url.Values{"project_id": []string{projectID}}
}

// UserContext fetches the projects and persons visible to the logged-in user.
func (c *Client) UserContext(ctx context.Context) (*UserContext, error) {
	var payload UserContext
	if err := c.Get(ctx, "/data/user/context", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ProjectDetail returns the raw project record.
func (c *Client) ProjectDetail(ctx context.Context, projectID string) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := c.Get(ctx, "/data/projects/"+url.PathEscape(projectID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Sequences lists the sequences of a project.
func (c *Client) Sequences(ctx context.Context, projectID string) ([]Sequence, error) {
	var payload []Sequence
	if err := c.Get(ctx, "/data/sequences", projectQuery(projectID), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ShotsWithTasks lists the shots of a project with their tasks embedded.
func (c *Client) ShotsWithTasks(ctx context.Context, projectID string) ([]Shot, error) {
	var payload []Shot
	if err := c.Get(ctx, "/data/shots/with-tasks", projectQuery(projectID), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AssetsWithTasks lists the assets of a project with their tasks embedded.
func (c *Client) AssetsWithTasks(ctx context.Context, projectID string) ([]Asset, error) {
	var payload []Asset
	if err := c.Get(ctx, "/data/assets/with-tasks", projectQuery(projectID), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Persons lists every person known to the server.
func (c *Client) Persons(ctx context.Context) ([]Person, error) {
	var payload []Person
	if err := c.Get(ctx, "/data/persons", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AssetTypes lists asset types.
func (c *Client) AssetTypes(ctx context.Context) ([]AssetType, error) {
	var payload []AssetType
	if err := c.Get(ctx, "/data/asset-types", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// TaskTypes lists task types.
func (c *Client) TaskTypes(ctx context.Context) ([]TaskType, error) {
	var payload []TaskType
	if err := c.Get(ctx, "/data/task-types", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// TaskStatuses lists task statuses.
func (c *Client) TaskStatuses(ctx context.Context) ([]TaskStatus, error) {
	var payload []TaskStatus
	if err := c.Get(ctx, "/data/task-status", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Casting returns the raw casting mapping of one sequence.
func (c *Client) Casting(ctx context.Context, projectID, sequenceID string) (json.RawMessage, error) {
	var payload json.RawMessage
	path := "/data/projects/" + url.PathEscape(projectID) + "/sequences/" + url.PathEscape(sequenceID) + "/casting"
	if err := c.Get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
