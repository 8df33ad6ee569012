package domain

import (
	"fmt"
	"strings"
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 255

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if len(s) > MaxTitleLength {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// NewTaskStatus validates and creates a TaskStatus.
// Accepts the hyphenated spelling ("in-progress") used by older clients.
func NewTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))

	if !status.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
	}
	return status, nil
}

// NewTaskPriority validates and creates a TaskPriority.
// Empty input defaults to medium, matching the server's default.
func NewTaskPriority(s string) (TaskPriority, error) {
	if strings.TrimSpace(s) == "" {
		return TaskPriorityMedium, nil
	}

	priority := TaskPriority(strings.ToLower(strings.TrimSpace(s)))

	if !priority.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskPriority, s)
	}
	return priority, nil
}
