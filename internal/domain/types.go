package domain

import "time"

// FilterCriteria selects tasks from a collection. Every field is optional;
// the zero value matches everything.
//
// Common use cases:
//   - "High priority work": Priority=high
//   - "Created this week": DateFrom=monday, DateTo=now
//   - "Anything about invoices": Search="invoice"
type FilterCriteria struct {
	Status   TaskStatus   // Exact match; empty or "all" = any
	Priority TaskPriority // Exact match; empty or "all" = any
	DateFrom Timestamp    // CreatedAt >= DateFrom when set
	DateTo   Timestamp    // CreatedAt <= DateTo when set
	Search   string       // Case-insensitive substring of Title or Description
}

// HasStatus reports whether a status constraint is set.
func (c FilterCriteria) HasStatus() bool {
	return c.Status != "" && c.Status != FilterAny
}

// HasPriority reports whether a priority constraint is set.
func (c FilterCriteria) HasPriority() bool {
	return c.Priority != "" && c.Priority != FilterAny
}

// PriorityCounts holds per-priority task counts.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// TaskStats is derived from a task collection on demand.
type TaskStats struct {
	Total          int            `json:"total"`
	Pending        int            `json:"pending"`
	InProgress     int            `json:"inProgress"`
	Completed      int            `json:"completed"`
	Overdue        int            `json:"overdue"`
	ByPriority     PriorityCounts `json:"byPriority"`
	CompletionRate int            `json:"completionRate"`
}

// ServerStats is the aggregate the API computes itself (GET /tasks/stats).
// Its shape differs from TaskStats and has no overdue count.
type ServerStats struct {
	TotalTasks     int `json:"total_tasks"`
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	HighPriority   int `json:"high_priority"`
	MediumPriority int `json:"medium_priority"`
	LowPriority    int `json:"low_priority"`
}

// User is the profile returned by registration.
type User struct {
	ID        TaskID    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"created_at"`
}

// Credentials are what login sends.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is what register sends.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthToken is the login response.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TaskQuery is the server-side filter set forwarded as query parameters.
// Empty values are omitted from the request.
type TaskQuery struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// Merge overlays the non-empty fields of other onto q.
// Setting a field to FilterAny clears it.
func (q TaskQuery) Merge(other TaskQuery) TaskQuery {
	if other.Status != "" {
		q.Status = other.Status
	}
	if other.Priority != "" {
		q.Priority = other.Priority
	}
	if other.DateFrom != "" {
		q.DateFrom = other.DateFrom
	}
	if other.DateTo != "" {
		q.DateTo = other.DateTo
	}
	return q
}

// Values returns the non-empty parameters as key/value pairs.
// "all" is the UI's "no constraint" sentinel and is dropped as well.
func (q TaskQuery) Values() map[string]string {
	out := make(map[string]string, 4)
	add := func(key, value string) {
		if value != "" && value != FilterAny {
			out[key] = value
		}
	}
	add("status", q.Status)
	add("priority", q.Priority)
	add("date_from", q.DateFrom)
	add("date_to", q.DateTo)
	return out
}

// DisplayTimeFormat is used wherever a timestamp is shown to a person.
const DisplayTimeFormat = "Jan 02, 2006 15:04"

// FormatTimestamp renders ts for display in loc, or "Invalid Date".
func FormatTimestamp(ts Timestamp, loc *time.Location) string {
	if !ts.Valid() {
		return "Invalid Date"
	}
	if loc == nil {
		loc = time.UTC
	}
	return ts.Time().In(loc).Format(DisplayTimeFormat)
}
