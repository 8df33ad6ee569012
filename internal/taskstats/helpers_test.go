package taskstats

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rezkam/taskdeck/internal/domain"
)

var evalTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTask(id string, status domain.TaskStatus, priority domain.TaskPriority, deadline time.Time) domain.Task {
	created := deadline.Add(-72 * time.Hour)
	return domain.Task{
		ID:        domain.TaskID(id),
		Title:     "Task " + id,
		Status:    status,
		Priority:  priority,
		Deadline:  domain.TimestampOf(deadline),
		CreatedAt: domain.TimestampOf(created),
		UpdatedAt: domain.TimestampOf(created),
	}
}

// randomTasks builds a reproducible collection that mixes recognised and
// unrecognised enum values and broken timestamps.
func randomTasks(seed uint64, n int) []domain.Task {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	statuses := []domain.TaskStatus{"pending", "in_progress", "completed", "blocked", ""}
	priorities := []domain.TaskPriority{"low", "medium", "high", "urgent"}

	tasks := make([]domain.Task, n)
	for i := range tasks {
		offset := time.Duration(rng.IntN(96)-48) * time.Hour
		task := newTask(fmt.Sprint(i), statuses[rng.IntN(len(statuses))], priorities[rng.IntN(len(priorities))], evalTime.Add(offset))
		task.Title = fmt.Sprintf("Item %d %s", i, []string{"alpha", "Beta", "gamma"}[rng.IntN(3)])
		if rng.IntN(10) == 0 {
			task.Deadline = domain.ParseTimestamp("not-a-date")
		}
		if rng.IntN(10) == 0 {
			task.CreatedAt = domain.ParseTimestamp("??")
		}
		tasks[i] = task
	}
	return tasks
}
