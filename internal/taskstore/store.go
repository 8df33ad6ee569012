// Package taskstore keeps the client-side copy of the user's tasks in sync
// with the API and derives views from it.
package taskstore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rezkam/taskdeck/internal/apiclient"
	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/rezkam/taskdeck/internal/taskstats"
)

// MessageTaskNotFound is shown when the server no longer has the task.
const MessageTaskNotFound = "Task not found"

// ErrSuperseded is returned by Fetch when a newer fetch was issued while it
// was in flight. Its response has been discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// API is the part of the API client the store needs.
type API interface {
	ListTasks(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)
	UpdateTask(ctx context.Context, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id domain.TaskID) error
	TaskStats(ctx context.Context) (domain.ServerStats, error)
}

// State is a snapshot of the store.
type State struct {
	Tasks   []domain.Task
	Filters domain.TaskQuery
	// Stats is nil until FetchServerStats succeeds.
	Stats   *domain.ServerStats
	Loading bool
	Error   string
}

// Store caches tasks fetched from the API. It is safe for concurrent use;
// the lock is never held across a network call.
type Store struct {
	api    API
	clock  func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	state    State
	fetchSeq uint64
	pending  int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time used to validate deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:    api,
		clock:  time.Now,
		logger: slog.Default(),
		state:  State{Tasks: []domain.Task{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch replaces the collection with the server's tasks for the current filters.
//
// Every call is numbered. When responses arrive out of order only the most
// recently issued fetch is applied; older ones return ErrSuperseded.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	query := s.state.Filters
	s.beginLocked()
	s.mu.Unlock()

	tasks, err := s.api.ListTasks(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if seq != s.fetchSeq {
		s.logger.DebugContext(ctx, "discarding superseded fetch", "seq", seq, "latest", s.fetchSeq)
		return ErrSuperseded
	}
	if err != nil {
		s.state.Error = domain.UserMessage(err, apiclient.MessageFetchFailed)
		return err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	s.state.Tasks = tasks
	return nil
}

// Create validates draft and, when the server accepts it, puts the new task
// at the front of the collection.
func (s *Store) Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	if err := domain.ValidateDraft(draft, s.clock()); err != nil {
		s.setError(domain.UserMessage(err, ""))
		return domain.Task{}, err
	}

	s.begin()
	task, err := s.api.CreateTask(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if err != nil {
		s.state.Error = domain.UserMessage(err, apiclient.MessageCreateFailed)
		return domain.Task{}, err
	}
	s.state.Tasks = slices.Insert(slices.Clone(s.state.Tasks), 0, task)
	return task, nil
}

// Update applies patch and replaces the task with the same ID in place.
func (s *Store) Update(ctx context.Context, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error) {
	if patch.IsEmpty() {
		err := domain.NewValidationError("patch", "Nothing to update")
		s.setError(domain.UserMessage(err, ""))
		return domain.Task{}, err
	}
	if err := patch.Validate(); err != nil {
		s.setError(domain.UserMessage(err, ""))
		return domain.Task{}, err
	}

	s.begin()
	task, err := s.api.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if err != nil {
		s.state.Error = failureMessage(err, apiclient.MessageUpdateFailed)
		return domain.Task{}, err
	}

	tasks := slices.Clone(s.state.Tasks)
	if i := indexOf(tasks, id); i >= 0 {
		tasks[i] = task
	}
	s.state.Tasks = tasks
	return task, nil
}

// Delete removes the task on the server and from the collection. A task the
// server does not know is dropped locally as well.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	s.begin()
	err := s.api.DeleteTask(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if err != nil {
		s.state.Error = failureMessage(err, apiclient.MessageDeleteFailed)
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	s.state.Tasks = slices.DeleteFunc(slices.Clone(s.state.Tasks), func(t domain.Task) bool {
		return t.ID == id
	})
	return err
}

// FetchServerStats loads and caches the aggregate computed by the server.
func (s *Store) FetchServerStats(ctx context.Context) (domain.ServerStats, error) {
	s.begin()
	stats, err := s.api.TaskStats(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if err != nil {
		s.state.Error = domain.UserMessage(err, apiclient.MessageStatsFailed)
		return domain.ServerStats{}, err
	}
	s.state.Stats = &stats
	return stats, nil
}

// SetFilters merges patch into the current filters. It does not fetch.
func (s *Store) SetFilters(patch domain.TaskQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters = s.state.Filters.Merge(patch)
}

// ResetFilters clears every filter.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters = domain.TaskQuery{}
}

// ClearError acknowledges the current error.
func (s *Store) ClearError() {
	s.setError("")
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.Tasks = slices.Clone(s.state.Tasks)
	if s.state.Stats != nil {
		stats := *s.state.Stats
		snap.Stats = &stats
	}
	return snap
}

// Tasks returns a copy of the cached collection.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Tasks)
}

// LocalStats computes statistics over the cached collection.
func (s *Store) LocalStats(now time.Time) domain.TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return taskstats.ComputeStats(s.state.Tasks, now)
}

// View filters then sorts the cached collection. The cache is not modified.
func (s *Store) View(criteria domain.FilterCriteria, key taskstats.SortKey, order taskstats.SortOrder) []domain.Task {
	s.mu.RLock()
	filtered := taskstats.FilterTasks(s.state.Tasks, criteria)
	s.mu.RUnlock()
	return taskstats.SortTasks(filtered, key, order)
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginLocked()
}

func (s *Store) beginLocked() {
	s.pending++
	s.state.Loading = true
	s.state.Error = ""
}

func (s *Store) endLocked() {
	s.pending--
	s.state.Loading = s.pending > 0
}

func (s *Store) setError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = message
}

func failureMessage(err error, fallback string) string {
	var serverErr *domain.ServerError
	if errors.Is(err, domain.ErrNotFound) && !errors.As(err, &serverErr) {
		return MessageTaskNotFound
	}
	return domain.UserMessage(err, fallback)
}

func indexOf(tasks []domain.Task, id domain.TaskID) int {
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id })
}
