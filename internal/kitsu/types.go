package kitsu

import (
	"encoding/json"
	"fmt"
)

// UserContext is the GET /data/user/context payload. Fields keeps every
// top-level key so the export can pass unknown keys through untouched.
type UserContext struct {
	Fields   map[string]json.RawMessage
	Projects []ContextProject
	Persons  []ContextPerson
}

// UnmarshalJSON decodes the raw object and the typed project and person lists.
func (u *UserContext) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var typed struct {
		Projects []ContextProject `json:"projects"`
		Persons  []ContextPerson  `json:"persons"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	u.Fields = fields
	u.Projects = typed.Projects
	u.Persons = typed.Persons
	return nil
}

// ContextProject is a project entry inside the user context.
type ContextProject struct {
	ID        string
	Name      string
	FPS       *Number
	HasAvatar *bool
	Fields    map[string]json.RawMessage
}

// UnmarshalJSON keeps the raw project object alongside the typed fields.
func (p *ContextProject) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var typed struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		FPS       *Number `json:"fps"`
		HasAvatar *bool   `json:"has_avatar"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("project %s: %w", fields["id"], err)
	}
	p.ID = typed.ID
	p.Name = typed.Name
	p.FPS = typed.FPS
	p.HasAvatar = typed.HasAvatar
	p.Fields = fields
	return nil
}

// ContextPerson is a person entry inside the user context.
type ContextPerson struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	HasAvatar bool   `json:"has_avatar"`
}

// Person is an entry of GET /data/persons.
type Person struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	HasAvatar bool   `json:"has_avatar"`
}

// Sequence is an entry of GET /data/sequences.
type Sequence struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is a task embedded in the with-tasks shot and asset listings.
type Task struct {
	TaskStatusID string   `json:"task_status_id"`
	TaskTypeID   string   `json:"task_type_id"`
	Assignees    []string `json:"assignees"`
}

// Shot is an entry of GET /data/shots/with-tasks.
type Shot struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	PreviewFileID string          `json:"preview_file_id"`
	SequenceID    *string         `json:"sequence_id"`
	Tasks         []Task          `json:"tasks"`
	Data          json.RawMessage `json:"data"`
}

// Frames reads frame_in and frame_out from the shot's data blob. A nil result
// means the key is absent or null.
func (s Shot) Frames() (frameIn, frameOut *Number, err error) {
	if len(s.Data) == 0 || string(s.Data) == "null" {
		return nil, nil, nil
	}
	var frames struct {
		FrameIn  *Number `json:"frame_in"`
		FrameOut *Number `json:"frame_out"`
	}
	if err := json.Unmarshal(s.Data, &frames); err != nil {
		return nil, nil, fmt.Errorf("shot %s data: %w", s.ID, err)
	}
	return frames.FrameIn, frames.FrameOut, nil
}

// Asset is an entry of GET /data/assets/with-tasks.
type Asset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AssetTypeID   string `json:"asset_type_id"`
	PreviewFileID string `json:"preview_file_id"`
	Canceled      bool   `json:"canceled"`
	Tasks         []Task `json:"tasks"`
}

// AssetType is an entry of GET /data/asset-types.
type AssetType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskType is an entry of GET /data/task-types.
type TaskType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	ForShots bool   `json:"for_shots"`
}

// TaskStatus is an entry of GET /data/task-status.
type TaskStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
