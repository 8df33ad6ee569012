package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rezkam/taskdeck/internal/apiclient"
	"github.com/rezkam/taskdeck/internal/config"
	"github.com/rezkam/taskdeck/internal/kvstore"
	"github.com/rezkam/taskdeck/internal/observability"
	"github.com/rezkam/taskdeck/internal/session"
	"github.com/rezkam/taskdeck/internal/taskstore"
)

const shutdownTimeout = 5 * time.Second

// app is everything a command needs, wired from configuration.
type app struct {
	cfg     *config.Config
	kv      kvstore.Store
	client  *apiclient.Client
	session *session.Store
	tasks   *taskstore.Store

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	// loc is where deadlines are typed and shown.
	loc *time.Location
}

// newApp loads configuration, starts observability, opens the session store
// and restores the persisted session. The returned cleanup must be called.
func newApp(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := cfg.Observability.Level()
	if err != nil {
		return nil, nil, err
	}
	providers, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		Output:      stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init observability: %w", err)
	}
	shutdownObservability := func() {
		// Use a timeout to prevent hanging if collector is unreachable
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown observability", "error", err)
		}
	}

	kv, err := openStore(ctx, cfg)
	if err != nil {
		shutdownObservability()
		return nil, nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	slog.DebugContext(ctx, "session storage opened", "backend", cfg.Storage.Type)

	a := &app{
		cfg:    cfg,
		kv:     kv,
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
		now:    time.Now,
		loc:    time.Local,
	}

	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRetry(cfg.API.RetryAttempts, cfg.API.RetryBackoff),
		apiclient.WithTokenSource(func() string { return a.session.Token() }),
		apiclient.WithUnauthorizedHandler(func(ctx context.Context) { a.session.HandleUnauthorized(ctx) }),
	)
	if err != nil {
		shutdownObservability()
		return nil, nil, errors.Join(err, kv.Close())
	}
	a.client = client
	a.session = session.NewStore(kv, client)
	a.tasks = taskstore.New(client)

	a.session.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventSessionExpired && ev.HadSession {
			fmt.Fprintln(a.errOut, "Your session has expired. Run 'taskdeck login' to sign in again.")
		}
	})
	a.session.Hydrate(ctx)

	cleanup := func() {
		if err := kv.Close(); err != nil {
			slog.Error("failed to close session storage", "error", err)
		}
		shutdownObservability()
	}
	return a, cleanup, nil
}

// requireSession fails when nobody is signed in.
func (a *app) requireSession() error {
	if !a.session.Snapshot().IsAuthenticated {
		return errors.New("not logged in, run 'taskdeck login' first")
	}
	return nil
}
