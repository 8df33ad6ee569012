package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TaskID is an opaque task identifier.
// The API issues integer IDs; the client only compares and echoes them, so
// both JSON numbers and strings are accepted and kept as text.
type TaskID string

// UnmarshalJSON accepts a JSON number or string.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode task id: %w", err)
		}
		*id = TaskID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode task id: %w", err)
	}
	*id = TaskID(n.String())
	return nil
}

// String returns the textual ID.
func (id TaskID) String() string {
	return string(id)
}

// Task is a single unit of work as returned by the API.
//
// Status and Priority are not validated on decode: values outside the
// enumerated sets are kept so statistics can count them in totals while
// leaving them out of every bucket.
type Task struct {
	ID          TaskID       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Deadline    Timestamp    `json:"deadline"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   Timestamp    `json:"created_at"`
	UpdatedAt   Timestamp    `json:"updated_at"`
}

// Validate checks the invariants of a well-formed task: non-empty title,
// recognised status and priority, and UpdatedAt not before CreatedAt.
func (t *Task) Validate() error {
	var fields []FieldError

	if _, err := NewTitle(t.Title); err != nil {
		fields = append(fields, FieldError{Field: "title", Issue: err.Error()})
	}
	if !t.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Issue: ErrInvalidTaskStatus.Error()})
	}
	if !t.Priority.Valid() {
		fields = append(fields, FieldError{Field: "priority", Issue: ErrInvalidTaskPriority.Error()})
	}
	if t.CreatedAt.Valid() && t.UpdatedAt.Valid() && t.UpdatedAt.Time().Before(t.CreatedAt.Time()) {
		fields = append(fields, FieldError{Field: "updated_at", Issue: "must not be before created_at"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// IsCompleted reports whether the task is in the completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// TaskDraft is the payload for creating a task.
type TaskDraft struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	Deadline    Timestamp    `json:"deadline"`
	Priority    TaskPriority `json:"priority" validate:"required,oneof=low medium high"`
}

// TaskPatch is the payload for updating a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Deadline    *Timestamp    `json:"deadline,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && p.Priority == nil && p.Status == nil
}

// Validate rejects patches that set a field to an invalid value.
func (p TaskPatch) Validate() error {
	var fields []FieldError

	if p.Title != nil {
		if _, err := NewTitle(*p.Title); err != nil {
			fields = append(fields, FieldError{Field: "title", Issue: err.Error()})
		}
	}
	if p.Deadline != nil && !p.Deadline.Valid() {
		fields = append(fields, FieldError{Field: "deadline", Issue: ErrInvalidTimestamp.Error()})
	}
	if p.Priority != nil && !p.Priority.Valid() {
		fields = append(fields, FieldError{Field: "priority", Issue: ErrInvalidTaskPriority.Error()})
	}
	if p.Status != nil && !p.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Issue: ErrInvalidTaskStatus.Error()})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
