// Package session owns the authentication state of the client: the bearer
// token, the registered user profile, and the progress of login and
// registration. State survives restarts through a kvstore.Store.
//
// A Store is created explicitly and shared by reference; there is no package
// level instance. All methods are safe for concurrent use.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rezkam/taskdeck/internal/apiclient"
	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/rezkam/taskdeck/internal/kvstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Persisted keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Phase is where the session is in its lifecycle.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	PhaseError         Phase = "error"
)

// Session is a read-only snapshot of the authentication state.
type Session struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	Loading         bool
	Error           string
	Phase           Phase
}

// EventKind identifies a session transition that the presentation layer may act on.
type EventKind string

const (
	// EventLoggedIn follows a successful Login.
	EventLoggedIn EventKind = "logged_in"
	// EventLoggedOut follows an explicit Logout.
	EventLoggedOut EventKind = "logged_out"
	// EventSessionExpired is the redirect-to-login signal. It follows any 401
	// response and a persisted token found expired at Hydrate.
	EventSessionExpired EventKind = "session_expired"
)

// Event is delivered to subscribers after the state change it describes.
type Event struct {
	Kind EventKind
	At   time.Time
	// HadSession is true when a token or user was present before the event.
	HadSession bool
}

// Authenticator is the part of the API the session needs.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthToken, error)
	Register(ctx context.Context, reg domain.Registration) (domain.User, error)
}

// Store holds the session.
type Store struct {
	kv     kvstore.Store
	auth   Authenticator
	clock  func() time.Time
	logger *slog.Logger
	events metric.Int64Counter

	mu    sync.RWMutex
	state Session
	// generation counts clears so a Login can tell that it was overtaken.
	generation uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for event timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an idle, empty session. Call Hydrate to restore persisted state.
func NewStore(kv kvstore.Store, auth Authenticator, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		auth:   auth,
		clock:  time.Now,
		logger: slog.Default(),
		state:  Session{Phase: PhaseIdle},
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter("github.com/rezkam/taskdeck/internal/session").Int64Counter(
		"taskdeck.session.events",
		metric.WithDescription("Session transitions by kind"))
	if err != nil {
		s.logger.Warn("session metrics disabled", "error", err)
		counter = noop.Int64Counter{}
	}
	s.events = counter

	return s
}

// Hydrate restores the persisted token and user.
//
// A missing key is normal. A user record that cannot be read or decoded, or
// any storage failure, yields an empty session; the problem is logged and
// never returned. A token that is a JWT whose exp claim has passed is
// treated as a rejected credential: it is cleared and EventSessionExpired is
// emitted.
func (s *Store) Hydrate(ctx context.Context) {
	token, err := kvstore.GetString(ctx, s.kv, KeyToken)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to read persisted token, starting signed out", "error", err)
		s.replace(Session{Phase: PhaseIdle})
		return
	}

	var user *domain.User
	stored, err := kvstore.GetJSON[domain.User](ctx, s.kv, KeyUser)
	switch {
	case err == nil:
		user = &stored
	case errors.Is(err, kvstore.ErrNotFound):
	default:
		s.logger.WarnContext(ctx, "failed to read persisted user, starting signed out", "error", err)
		s.replace(Session{Phase: PhaseIdle})
		return
	}

	s.replace(Session{
		User:            user,
		Token:           token,
		IsAuthenticated: token != "",
		Phase:           phaseFor(token != ""),
	})

	if token != "" && tokenExpired(token, s.clock()) {
		s.logger.InfoContext(ctx, "persisted token has expired")
		s.HandleUnauthorized(ctx)
	}
}

// Login validates creds, exchanges them for a token and persists it.
//
// Validation failures never reach the network. On any failure the session
// records a user-facing message in Error and nothing is persisted; the
// error is also returned so callers can branch on it.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) error {
	if err := domain.ValidateCredentials(creds); err != nil {
		s.fail(domain.UserMessage(err, ""))
		return err
	}

	s.begin()

	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", "error", err)
		s.fail(domain.UserMessage(err, apiclient.MessageLoginFailed))
		return err
	}

	// Memory first, then storage. A clear that lands in between bumps the
	// generation and the stored token is withdrawn below.
	s.mu.Lock()
	s.state.Token = token.AccessToken
	s.state.IsAuthenticated = true
	s.state.Loading = false
	s.state.Error = ""
	s.state.Phase = PhaseAuthenticated
	generation := s.generation
	s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyToken, []byte(token.AccessToken)); err != nil {
		s.logger.WarnContext(ctx, "failed to persist token, session will not survive restart", "error", err)
	}

	s.mu.RLock()
	cleared := s.generation != generation
	s.mu.RUnlock()
	if cleared {
		s.logger.InfoContext(ctx, "session cleared while the token was being stored")
		if err := s.kv.Remove(context.WithoutCancel(ctx), KeyToken); err != nil {
			s.logger.WarnContext(ctx, "failed to remove persisted token", "error", err)
		}
		return nil
	}

	s.emit(ctx, Event{Kind: EventLoggedIn, At: s.clock(), HadSession: true})
	return nil
}

// Register validates data and creates an account. The returned profile is
// stored as the session user, but registering does not log in.
func (s *Store) Register(ctx context.Context, data domain.Registration) (domain.User, error) {
	if err := domain.ValidateRegistration(data); err != nil {
		s.fail(domain.UserMessage(err, ""))
		return domain.User{}, err
	}

	s.begin()

	user, err := s.auth.Register(ctx, data)
	if err != nil {
		s.logger.InfoContext(ctx, "registration failed", "error", err)
		s.fail(domain.UserMessage(err, apiclient.MessageRegisterFailed))
		return domain.User{}, err
	}

	if err := kvstore.SetJSON(ctx, s.kv, KeyUser, user); err != nil {
		s.logger.WarnContext(ctx, "failed to persist user", "error", err)
	}

	s.mu.Lock()
	u := user
	s.state.User = &u
	s.state.Loading = false
	s.state.Error = ""
	s.state.Phase = phaseFor(s.state.IsAuthenticated)
	s.mu.Unlock()

	return user, nil
}

// Logout clears the session in memory and in storage. Calling it on an
// empty session is harmless.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx, EventLoggedOut)
}

// HandleUnauthorized reacts to a rejected credential: the session is
// cleared as in Logout and EventSessionExpired tells the presentation layer
// to send the user back to login.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	s.clear(ctx, EventSessionExpired)
}

// ClearError acknowledges the current error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Error = ""
	if s.state.Phase == PhaseError {
		s.state.Phase = phaseFor(s.state.IsAuthenticated)
	}
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	return snap
}

// Subject returns the "sub" claim of the current token when it is a JWT.
// The API puts the account email there.
func (s *Store) Subject() string {
	token := s.Token()
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// Subscribe registers fn for every future Event. The returned function
// removes the subscription and may be called more than once.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = true
	s.state.Error = ""
	s.state.Phase = PhaseLoading
}

func (s *Store) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = false
	s.state.Error = message
	s.state.Phase = PhaseError
}

func (s *Store) replace(next Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

func (s *Store) clear(ctx context.Context, kind EventKind) {
	s.mu.Lock()
	had := s.state.Token != "" || s.state.User != nil
	s.state = Session{Phase: PhaseIdle}
	s.generation++
	s.mu.Unlock()

	// Storage must be cleared even when the caller's context is already done,
	// otherwise the next Hydrate brings the token back.
	if err := kvstore.RemoveAll(context.WithoutCancel(ctx), s.kv, KeyToken, KeyUser); err != nil {
		s.logger.WarnContext(ctx, "failed to remove persisted session", "error", err)
	}

	s.emit(ctx, Event{Kind: kind, At: s.clock(), HadSession: had})
}

// emit delivers ev outside of any lock so subscribers may call back into the store.
func (s *Store) emit(ctx context.Context, ev Event) {
	s.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(ev.Kind))))

	s.subMu.Lock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func phaseFor(authenticated bool) Phase {
	if authenticated {
		return PhaseAuthenticated
	}
	return PhaseIdle
}

// tokenExpired reports whether token is a JWT whose exp claim is at or before now.
// Opaque tokens and JWTs without exp never expire client-side; the server decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
