package domain

// TaskStatus represents the current state of a task.
// Value object - immutable string enum.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the recognised statuses in their workflow order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether the status is one of the recognised values.
// Tasks decoded from the API may carry anything, so callers that count or
// group by status must check this instead of assuming.
func (s TaskStatus) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the status in the workflow (pending first),
// or -1 for unrecognised values.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusInProgress:
		return 1
	case TaskStatusCompleted:
		return 2
	default:
		return -1
	}
}

// TaskPriority represents the priority level of a task.
// Value object - immutable string enum.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskPriorities lists the recognised priorities from lowest to highest.
var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

// Valid reports whether the priority is one of the recognised values.
func (p TaskPriority) Valid() bool {
	return p.Rank() >= 0
}

// Rank returns the semantic order of the priority (low=0, medium=1, high=2),
// or -1 for unrecognised values.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 0
	case TaskPriorityMedium:
		return 1
	case TaskPriorityHigh:
		return 2
	default:
		return -1
	}
}

// FilterAny is the sentinel the UI sends for "no constraint" on enum filters.
const FilterAny = "all"
