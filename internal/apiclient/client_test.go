package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, append([]Option{WithRetry(0, 0)}, opts...)...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8000")
	assert.Error(t, err)

	_, err = New("/tasks")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/auth/login", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("Authorization"))
			_, err := uuid.Parse(r.Header.Get(HeaderRequestID))
			assert.NoError(t, err)

			var creds domain.Credentials
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, domain.Credentials{Email: "a@b.co", Password: "pw"}, creds)

			writeJSON(w, http.StatusOK, `{"access_token":"tok-1","token_type":"bearer"}`)
		}))

		token, err := client.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, domain.AuthToken{AccessToken: "tok-1", TokenType: "bearer"}, token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		var hookCalls atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
		}), WithUnauthorizedHandler(func(context.Context) { hookCalls.Add(1) }))

		_, err := client.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "bad"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, "Invalid credentials", domain.UserMessage(err, MessageLoginFailed))
		assert.Equal(t, int32(1), hookCalls.Load(), "every 401 reaches the hook")
	})

	t.Run("missing token in body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"token_type":"bearer"}`)
		}))

		_, err := client.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "pw"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, MessageLoginFailed, domain.UserMessage(err, MessageLoginFailed))
	})
}

func TestRegister_DuplicateEmail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"detail":"Email already registered"}`)
	}))

	_, err := client.Register(context.Background(), domain.Registration{Email: "a@b.co", Password: "secret"})
	var serverErr *domain.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "Email already registered", domain.UserMessage(err, MessageRegisterFailed))
}

func TestRegister_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":3,"email":"a@b.co","created_at":"2024-01-01T10:00:00"}`)
	}))

	user, err := client.Register(context.Background(), domain.Registration{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskID("3"), user.ID)
	assert.Equal(t, "a@b.co", user.Email)
	assert.True(t, user.CreatedAt.Valid())
}

func TestListTasks_ForwardsNonEmptyFiltersAndToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "2024-01-01", q.Get("date_from"))
		assert.False(t, q.Has("priority"), "\"all\" is not forwarded")
		assert.False(t, q.Has("date_to"), "empty values are not forwarded")

		writeJSON(w, http.StatusOK, `[
			{"id":2,"title":"B","priority":"high","status":"pending","deadline":"2024-02-01T00:00:00","created_at":"2024-01-02T00:00:00","updated_at":"2024-01-02T00:00:00"},
			{"id":1,"title":"A","priority":"low","status":"pending","deadline":"2024-02-01T00:00:00","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00"}
		]`)
	}), WithTokenSource(func() string { return "tok-9" }))

	tasks, err := client.ListTasks(context.Background(), domain.TaskQuery{Status: "pending", Priority: domain.FilterAny, DateFrom: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskID("2"), tasks[0].ID)
	assert.Equal(t, domain.TaskPriorityHigh, tasks[0].Priority)
}

func TestListTasks_NullBodyIsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `null`)
	}))

	tasks, err := client.ListTasks(context.Background(), domain.TaskQuery{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestUpdateAndDelete_NullMeansNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/42", r.URL.Path)
		writeJSON(w, http.StatusOK, `null`)
	}))

	status := domain.TaskStatusCompleted
	_, err := client.UpdateTask(context.Background(), "42", domain.TaskPatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = client.DeleteTask(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateTask_SendsOnlySetFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "completed"}, body)

		writeJSON(w, http.StatusOK, `{"id":7,"title":"T","status":"completed","priority":"low","deadline":"2024-02-01T00:00:00","created_at":"2024-01-01T00:00:00","updated_at":"2024-01-03T00:00:00"}`)
	}))

	status := domain.TaskStatusCompleted
	task, err := client.UpdateTask(context.Background(), "7", domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.True(t, task.IsCompleted())
}

func TestTaskStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/stats", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"total_tasks":5,"pending":2,"in_progress":1,"completed":2,"high_priority":1,"medium_priority":3,"low_priority":1}`)
	}))

	stats, err := client.TaskStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ServerStats{TotalTasks: 5, Pending: 2, InProgress: 1, Completed: 2, HighPriority: 1, MediumPriority: 3, LowPriority: 1}, stats)
}

func TestServerErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantMsg    string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"Bad deadline"}`, "Bad deadline", "Bad deadline"},
		{"message wins over detail", http.StatusBadRequest, `{"message":"From message","detail":"From detail"}`, "From message", "From message"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","title"],"msg":"field required"},{"msg":"value is not a valid enumeration member"}]}`, "field required; value is not a valid enumeration member", "field required; value is not a valid enumeration member"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "", MessageCreateFailed},
		{"empty body", http.StatusInternalServerError, ``, "", MessageCreateFailed},
		{"not found", http.StatusNotFound, `{"detail":"Not Found"}`, "Not Found", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))

			_, err := client.CreateTask(context.Background(), domain.TaskDraft{Title: "x", Priority: domain.TaskPriorityLow})
			var serverErr *domain.ServerError
			require.ErrorAs(t, err, &serverErr)
			assert.Equal(t, tt.status, serverErr.StatusCode)
			assert.Equal(t, tt.wantDetail, serverErr.Detail)
			assert.Equal(t, tt.wantMsg, domain.UserMessage(err, MessageCreateFailed))
		})
	}
}

func TestUnauthorizedHookFiresForAnyEndpoint(t *testing.T) {
	var hookCalls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	}), WithUnauthorizedHandler(func(context.Context) { hookCalls.Add(1) }))

	ctx := context.Background()
	_, _ = client.ListTasks(ctx, domain.TaskQuery{})
	_, _ = client.TaskStats(ctx)
	_ = client.DeleteTask(ctx, "1")

	assert.Equal(t, int32(3), hookCalls.Load())
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(url, WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	_, err = client.ListTasks(context.Background(), domain.TaskQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, domain.MessageNetwork, domain.UserMessage(err, MessageFetchFailed))
}

// flakyTransport fails the first n round trips before delegating.
type flakyTransport struct {
	failures atomic.Int32
	limit    int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if f.failures.Add(1) <= f.limit {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(r)
}

func TestRetry_OnlyReadsAreRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, `[]`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":1,"title":"x","status":"pending","priority":"low"}`)
	}))
	t.Cleanup(srv.Close)

	t.Run("GET recovers", func(t *testing.T) {
		transport := &flakyTransport{limit: 2, next: http.DefaultTransport}
		client, err := New(srv.URL, WithHTTPClient(&http.Client{Transport: transport}), WithRetry(2, time.Millisecond))
		require.NoError(t, err)

		tasks, err := client.ListTasks(context.Background(), domain.TaskQuery{})
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.Equal(t, int32(3), transport.failures.Load())
	})

	t.Run("POST is attempted once", func(t *testing.T) {
		transport := &flakyTransport{limit: 1, next: http.DefaultTransport}
		client, err := New(srv.URL, WithHTTPClient(&http.Client{Transport: transport}), WithRetry(3, time.Millisecond))
		require.NoError(t, err)

		_, err = client.CreateTask(context.Background(), domain.TaskDraft{Title: "x", Priority: domain.TaskPriorityLow})
		assert.ErrorIs(t, err, domain.ErrNetwork)
		assert.Equal(t, int32(1), transport.failures.Load())
	})

	t.Run("server errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusServiceUnavailable, `{"detail":"down"}`)
		}))
		t.Cleanup(failing.Close)

		client, err := New(failing.URL, WithRetry(3, time.Millisecond))
		require.NoError(t, err)

		_, err = client.TaskStats(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListTasks(ctx, domain.TaskQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "", extractDetail(nil))
	assert.Equal(t, "", extractDetail([]byte(`{"detail":{"weird":true}}`)))
	assert.Equal(t, "x", extractDetail([]byte(`{"detail":"x"}`)))
}
