package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rezkam/taskdeck/internal/domain"
	"github.com/rezkam/taskdeck/internal/taskstats"
	"golang.org/x/sync/errgroup"
)

// failure reports a message meant for the user while keeping the cause
// available to errors.Is.
type failure struct {
	message string
	cause   error
}

func (f *failure) Error() string { return f.message }
func (f *failure) Unwrap() error { return f.cause }

func fail(message string, cause error) error {
	if message == "" {
		message = cause.Error()
	}
	return &failure{message: message, cause: cause}
}

func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// splitID accepts the task ID before or after the flags.
func splitID(fs *flag.FlagSet, args []string) (domain.TaskID, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := parse(fs, args); err != nil {
		return "", err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		fmt.Fprintf(fs.Output(), "usage: taskdeck %s <id> [flags]\n", fs.Name())
		return "", errUsage
	}
	return domain.TaskID(id), nil
}

func (a *app) prompt(label string) string {
	fmt.Fprint(a.errOut, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login", a.errOut)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *email == "" {
		*email = a.prompt("Email: ")
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}

	if err := a.session.Login(ctx, domain.Credentials{Email: *email, Password: *password}); err != nil {
		return fail(a.session.Snapshot().Error, err)
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", strings.TrimSpace(*email))
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register", a.errOut)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, at least 6 characters (prompted when omitted)")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *email == "" {
		*email = a.prompt("Email: ")
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}

	user, err := a.session.Register(ctx, domain.Registration{Email: *email, Password: *password})
	if err != nil {
		return fail(a.session.Snapshot().Error, err)
	}

	fmt.Fprintf(a.out, "Account created for %s. Run 'taskdeck login' to sign in.\n", user.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlagSet("logout", a.errOut), args); err != nil {
		return err
	}
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, args []string) error {
	if err := parse(newFlagSet("whoami", a.errOut), args); err != nil {
		return err
	}

	snap := a.session.Snapshot()
	if !snap.IsAuthenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	who := a.session.Subject()
	if snap.User != nil && snap.User.Email != "" {
		who = snap.User.Email
	}
	if who == "" {
		fmt.Fprintln(a.out, "Logged in")
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", who)
	return nil
}

func cmdTasks(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("tasks", a.errOut)
	status := fs.String("status", "", "only tasks with this status (pending, in_progress, completed)")
	priority := fs.String("priority", "", "only tasks with this priority (low, medium, high)")
	from := fs.String("from", "", "created on or after this date")
	to := fs.String("to", "", "created on or before this date")
	search := fs.String("search", "", "case-insensitive text in title or description")
	sortBy := fs.String("sort", string(taskstats.DefaultSortKey), "sort key")
	order := fs.String("order", string(taskstats.DefaultSortOrder), "asc or desc")
	overdue := fs.Bool("overdue", false, "only overdue tasks")
	if err := parse(fs, args); err != nil {
		return err
	}

	query, err := taskQuery(*status, *priority, *from, *to)
	if err != nil {
		return err
	}
	key, err := taskstats.ParseSortKey(*sortBy)
	if err != nil {
		return err
	}
	dir, err := taskstats.ParseSortOrder(*order)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	a.tasks.SetFilters(query)
	if err := a.tasks.Fetch(ctx); err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}

	view := a.tasks.View(domain.FilterCriteria{Search: *search}, key, dir)
	if *overdue {
		view = taskstats.Overdue(view, a.now())
	}
	renderTasks(a.out, view, a.now(), a.loc)
	return nil
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("create", a.errOut)
	title := fs.String("title", "", "task title (required)")
	description := fs.String("description", "", "task description")
	deadline := fs.String("deadline", "", "deadline, e.g. 2025-01-31T17:00 (required)")
	priority := fs.String("priority", string(domain.TaskPriorityMedium), "low, medium or high")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	task, err := a.tasks.Create(ctx, domain.TaskDraft{
		Title:       strings.TrimSpace(*title),
		Description: *description,
		Deadline:    domain.ParseTimestampIn(*deadline, a.loc),
		Priority:    domain.TaskPriority(strings.ToLower(*priority)),
	})
	if err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}

	fmt.Fprintf(a.out, "Created task %s: %s\n", task.ID, task.Title)
	return nil
}

func cmdUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("update", a.errOut)
	fs.String("title", "", "new title")
	fs.String("description", "", "new description")
	fs.String("deadline", "", "new deadline")
	fs.String("priority", "", "new priority")
	fs.String("status", "", "new status")
	id, err := splitID(fs, args)
	if err != nil {
		return err
	}

	patch, err := taskPatch(fs, a.loc)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	task, err := a.tasks.Update(ctx, id, patch)
	if err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}

	renderTasks(a.out, []domain.Task{task}, a.now(), a.loc)
	return nil
}

// taskPatch builds a patch from the flags that were set explicitly. Deadlines
// without a zone are read in loc.
func taskPatch(fs *flag.FlagSet, loc *time.Location) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	var errs error
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "title":
			patch.Title = &value
		case "description":
			patch.Description = &value
		case "deadline":
			ts := domain.ParseTimestampIn(value, loc)
			patch.Deadline = &ts
		case "priority":
			// NewTaskPriority defaults empty input, which is only right for drafts.
			if strings.TrimSpace(value) == "" {
				errs = errors.Join(errs, domain.NewValidationError("priority", "Priority cannot be empty"))
				return
			}
			p, err := domain.NewTaskPriority(value)
			errs = errors.Join(errs, err)
			patch.Priority = &p
		case "status":
			s, err := domain.NewTaskStatus(value)
			errs = errors.Join(errs, err)
			patch.Status = &s
		}
	})
	if errs != nil {
		return domain.TaskPatch{}, errs
	}
	return patch, nil
}

// taskQuery normalises the server-side filters the same way update does.
// Empty values and FilterAny pass through untouched.
func taskQuery(status, priority, from, to string) (domain.TaskQuery, error) {
	query := domain.TaskQuery{
		Status:   strings.TrimSpace(status),
		Priority: strings.TrimSpace(priority),
		DateFrom: strings.TrimSpace(from),
		DateTo:   strings.TrimSpace(to),
	}
	if query.Status != "" && query.Status != domain.FilterAny {
		s, err := domain.NewTaskStatus(query.Status)
		if err != nil {
			return domain.TaskQuery{}, err
		}
		query.Status = string(s)
	}
	if query.Priority != "" && query.Priority != domain.FilterAny {
		p, err := domain.NewTaskPriority(query.Priority)
		if err != nil {
			return domain.TaskQuery{}, err
		}
		query.Priority = string(p)
	}
	return query, nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	id, err := splitID(newFlagSet("delete", a.errOut), args)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.tasks.Delete(ctx, id); err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}

	fmt.Fprintf(a.out, "Deleted task %s\n", id)
	return nil
}

func cmdStats(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("stats", a.errOut)
	server := fs.Bool("server", false, "also show the statistics computed by the server")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.tasks.Fetch(ctx); err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}
	renderStats(a.out, a.tasks.LocalStats(a.now()))

	if *server {
		stats, err := a.tasks.FetchServerStats(ctx)
		if err != nil {
			return fail(a.tasks.Snapshot().Error, err)
		}
		fmt.Fprintln(a.out)
		renderServerStats(a.out, stats)
	}
	return nil
}

// cmdDashboard fetches the task list and the server statistics concurrently.
func cmdDashboard(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("dashboard", a.errOut)
	limit := fs.Int("limit", 5, "number of upcoming tasks to show")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	var serverStats domain.ServerStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.tasks.Fetch(gctx)
	})
	g.Go(func() error {
		var err error
		serverStats, err = a.tasks.FetchServerStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(a.tasks.Snapshot().Error, err)
	}

	now := a.now()
	renderStats(a.out, a.tasks.LocalStats(now))
	fmt.Fprintln(a.out)
	renderServerStats(a.out, serverStats)

	overdue := taskstats.Overdue(a.tasks.Tasks(), now)
	if len(overdue) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Overdue:")
		renderTasks(a.out, taskstats.SortTasks(overdue, taskstats.SortByDeadline, taskstats.Asc), now, a.loc)
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Upcoming:")
	renderTasks(a.out, upcoming(a.tasks.Tasks(), now, *limit), now, a.loc)
	return nil
}

// upcoming returns open tasks that are not yet due, soonest first.
func upcoming(tasks []domain.Task, now time.Time, limit int) []domain.Task {
	open := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsCompleted() && !taskstats.IsOverdueAt(t.Deadline, now) {
			open = append(open, t)
		}
	}
	sorted := taskstats.SortTasks(open, taskstats.SortByDeadline, taskstats.Asc)
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
