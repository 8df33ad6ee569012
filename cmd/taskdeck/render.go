package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/rezkam/taskdeck/internal/taskstats"
)

const (
	maxTitleWidth       = 40
	maxDescriptionWidth = 50
)

// truncate shortens s to n runes followed by "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func statusLabel(s domain.TaskStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func renderTasks(w io.Writer, tasks []domain.Task, now time.Time, loc *time.Location) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tDEADLINE\tDESCRIPTION")
	for _, t := range tasks {
		deadline := domain.FormatTimestamp(t.Deadline, loc)
		if !t.IsCompleted() && taskstats.IsOverdueAt(t.Deadline, now) {
			deadline += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			truncate(t.Title, maxTitleWidth),
			statusLabel(t.Status),
			t.Priority,
			deadline,
			truncate(t.Description, maxDescriptionWidth),
		)
	}
	tw.Flush()
}

func renderStats(w io.Writer, s domain.TaskStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Pending\t%d\n", s.Pending)
	fmt.Fprintf(tw, "In progress\t%d\n", s.InProgress)
	fmt.Fprintf(tw, "Completed\t%d\n", s.Completed)
	fmt.Fprintf(tw, "Overdue\t%d\n", s.Overdue)
	fmt.Fprintf(tw, "Priority\thigh %d, medium %d, low %d\n", s.ByPriority.High, s.ByPriority.Medium, s.ByPriority.Low)
	fmt.Fprintf(tw, "Completion rate\t%d%%\n", s.CompletionRate)
	tw.Flush()
}

func renderServerStats(w io.Writer, s domain.ServerStats) {
	fmt.Fprintln(w, "Server statistics:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Total\t%d\n", s.TotalTasks)
	fmt.Fprintf(tw, "  Pending\t%d\n", s.Pending)
	fmt.Fprintf(tw, "  In progress\t%d\n", s.InProgress)
	fmt.Fprintf(tw, "  Completed\t%d\n", s.Completed)
	fmt.Fprintf(tw, "  Priority\thigh %d, medium %d, low %d\n", s.HighPriority, s.MediumPriority, s.LowPriority)
	tw.Flush()
}
