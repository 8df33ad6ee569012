package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rezkam/taskdeck/internal/domain"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error) {
	var token domain.AuthToken
	err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/auth/login", body: creds, out: &token})
	if err != nil {
		return domain.AuthToken{}, err
	}
	if token.AccessToken == "" {
		return domain.AuthToken{}, fmt.Errorf("login: %w", ErrEmptyResponse)
	}
	return token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/auth/register", body: reg, out: &user})
	return user, err
}

// ListTasks returns the user's tasks, filtered server-side by q.
// The server orders them newest first.
func (c *Client) ListTasks(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	query := url.Values{}
	for key, value := range q.Values() {
		query.Set(key, value)
	}

	var tasks []domain.Task
	err := c.do(ctx, request{op: "list_tasks", method: http.MethodGet, path: "/tasks", query: query, out: &tasks})
	if errors.Is(err, ErrEmptyResponse) {
		return []domain.Task{}, nil
	}
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// CreateTask creates a task and returns it as stored.
func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, request{op: "create_task", method: http.MethodPost, path: "/tasks", body: draft, out: &task})
	return task, err
}

// UpdateTask applies patch to the task with id. The API answers null for
// a task that does not exist or belongs to someone else; that is reported
// as domain.ErrNotFound.
func (c *Client) UpdateTask(ctx context.Context, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, request{op: "update_task", method: http.MethodPut, path: "/tasks/" + url.PathEscape(id.String()), body: patch, out: &task})
	if errors.Is(err, ErrEmptyResponse) {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return task, err
}

// DeleteTask deletes the task with id, with the same not-found rule as UpdateTask.
func (c *Client) DeleteTask(ctx context.Context, id domain.TaskID) error {
	var deleted domain.Task
	err := c.do(ctx, request{op: "delete_task", method: http.MethodDelete, path: "/tasks/" + url.PathEscape(id.String()), out: &deleted})
	if errors.Is(err, ErrEmptyResponse) {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return err
}

// TaskStats returns the aggregate the server computes.
func (c *Client) TaskStats(ctx context.Context) (domain.ServerStats, error) {
	var stats domain.ServerStats
	err := c.do(ctx, request{op: "task_stats", method: http.MethodGet, path: "/tasks/stats", out: &stats})
	if errors.Is(err, ErrEmptyResponse) {
		return domain.ServerStats{}, nil
	}
	return stats, err
}
