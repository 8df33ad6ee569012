package taskstats

import (
	"testing"

	"github.com/rezkam/taskdeck/internal/domain"
)

func BenchmarkComputeStats_10k(b *testing.B) {
	tasks := randomTasks(1, 10_000)
	for b.Loop() {
		ComputeStats(tasks, evalTime)
	}
}

func BenchmarkFilterThenSort_10k(b *testing.B) {
	tasks := randomTasks(2, 10_000)
	criteria := domain.FilterCriteria{Status: domain.TaskStatusPending, Search: "beta"}
	for b.Loop() {
		SortTasks(FilterTasks(tasks, criteria), SortByDeadline, Desc)
	}
}
