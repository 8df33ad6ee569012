package taskstats

import (
	"strings"

	"github.com/rezkam/taskdeck/internal/domain"
)

// FilterTasks returns the tasks that satisfy every supplied criterion, in
// input order. The result is a new slice; tasks is left untouched.
//
// A task whose CreatedAt cannot be parsed fails any supplied date bound.
func FilterTasks(tasks []domain.Task, criteria domain.FilterCriteria) []domain.Task {
	search := strings.ToLower(criteria.Search)

	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if matches(&task, criteria, search) {
			out = append(out, task)
		}
	}
	return out
}

// Matches reports whether a single task satisfies criteria.
func Matches(task domain.Task, criteria domain.FilterCriteria) bool {
	return matches(&task, criteria, strings.ToLower(criteria.Search))
}

func matches(task *domain.Task, criteria domain.FilterCriteria, search string) bool {
	if criteria.HasStatus() && task.Status != criteria.Status {
		return false
	}

	if criteria.HasPriority() && task.Priority != criteria.Priority {
		return false
	}

	if !criteria.DateFrom.IsZero() {
		if !task.CreatedAt.Valid() || !criteria.DateFrom.Valid() {
			return false
		}
		if task.CreatedAt.Time().Before(criteria.DateFrom.Time()) {
			return false
		}
	}

	if !criteria.DateTo.IsZero() {
		if !task.CreatedAt.Valid() || !criteria.DateTo.Valid() {
			return false
		}
		if task.CreatedAt.Time().After(criteria.DateTo.Time()) {
			return false
		}
	}

	if search != "" {
		titleMatch := strings.Contains(strings.ToLower(task.Title), search)
		descriptionMatch := strings.Contains(strings.ToLower(task.Description), search)
		if !titleMatch && !descriptionMatch {
			return false
		}
	}

	return true
}
