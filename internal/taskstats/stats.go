// Package taskstats derives read-only views from a task collection:
// aggregate statistics, overdue detection, filtering and sorting.
//
// Every function is pure. Inputs are never mutated, nothing reads the wall
// clock, and malformed data (unknown enum values, unparseable timestamps) is
// normalised instead of reported, so no function here returns an error.
package taskstats

import (
	"math"
	"time"

	"github.com/rezkam/taskdeck/internal/domain"
)

// ComputeStats aggregates tasks in a single pass, evaluated at now.
//
// A task with a status or priority outside the enumerated set counts toward
// Total but toward no bucket, so Pending+InProgress+Completed <= Total.
func ComputeStats(tasks []domain.Task, now time.Time) domain.TaskStats {
	stats := domain.TaskStats{Total: len(tasks)}

	for i := range tasks {
		task := &tasks[i]

		switch task.Status {
		case domain.TaskStatusPending:
			stats.Pending++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		case domain.TaskStatusCompleted:
			stats.Completed++
		}

		if !task.IsCompleted() && IsOverdueAt(task.Deadline, now) {
			stats.Overdue++
		}

		switch task.Priority {
		case domain.TaskPriorityLow:
			stats.ByPriority.Low++
		case domain.TaskPriorityMedium:
			stats.ByPriority.Medium++
		case domain.TaskPriorityHigh:
			stats.ByPriority.High++
		}
	}

	stats.CompletionRate = completionRate(stats.Completed, stats.Total)
	return stats
}

// completionRate returns round(100 * completed / total), 0 for an empty set.
func completionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// IsOverdue reports whether deadline parses to a valid timestamp strictly
// before now. Unparseable deadlines are never overdue.
func IsOverdue(deadline string, now time.Time) bool {
	return IsOverdueAt(domain.ParseTimestamp(deadline), now)
}

// IsOverdueAt is IsOverdue for an already decoded timestamp.
// The comparison is between absolute instants, so the evaluation time zone
// does not matter.
func IsOverdueAt(deadline domain.Timestamp, now time.Time) bool {
	return deadline.Before(now)
}

// Overdue returns the tasks that are not completed and past their deadline,
// in input order.
func Overdue(tasks []domain.Task, now time.Time) []domain.Task {
	out := make([]domain.Task, 0)
	for _, task := range tasks {
		if !task.IsCompleted() && IsOverdueAt(task.Deadline, now) {
			out = append(out, task)
		}
	}
	return out
}
