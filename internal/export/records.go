package export

import "encoding/json"

// Task is the per-shot and per-asset task record read by the front end.
type Task struct {
	TaskStatusID string   `json:"task_status_id"`
	TaskTypeID   string   `json:"task_type_id"`
	Assignees    []string `json:"assignees"`
}

// Shot is one entry of shots.json.
type Shot struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	ThumbnailURL    *string         `json:"thumbnailUrl"`
	StartFrame      int             `json:"startFrame"`
	DurationSeconds float64         `json:"durationSeconds"`
	Tasks           []Task          `json:"tasks"`
	SequenceID      *string         `json:"sequence_id"`
	Data            json.RawMessage `json:"data"`

	// FrameOut is kept for the edit manifest.
	FrameOut int `json:"-"`
}

// Asset is one entry of assets.json.
type Asset struct {
	ID           string `json:"id"`
	AssetTypeID  string `json:"asset_type_id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Tasks        []Task `json:"tasks"`
}

// Person is one entry of persons.json.
type Person struct {
	Name           string    `json:"name"`
	ID             string    `json:"id"`
	ProfilePicture string    `json:"profilePicture"`
	Color          []float64 `json:"color,omitempty"`
}

// Sequence is one entry of sequences.json.
type Sequence struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ContextPerson is the privacy-filtered person kept in context.json.
type ContextPerson struct {
	FullName  string `json:"full_name"`
	HasAvatar bool   `json:"has_avatar"`
	ID        string `json:"id"`
}

// AssetType is one entry of asset-types.json.
type AssetType struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TaskType is one entry of task-types.json.
type TaskType struct {
	Name     string    `json:"name"`
	Color    []float64 `json:"color"`
	ID       string    `json:"id"`
	ForShots bool      `json:"for_shots"`
}

// TaskStatus is one entry of task-status.json.
type TaskStatus struct {
	Name  string    `json:"name"`
	Color []float64 `json:"color"`
	ID    string    `json:"id"`
}

// EditManifest is edit.json: how the exported shots map onto the reference
// video's frame range.
type EditManifest struct {
	SourceName  string `json:"sourceName"`
	SourceType  string `json:"sourceType"`
	TotalFrames int    `json:"totalFrames"`
	FrameOffset int    `json:"frameOffset"`
}
