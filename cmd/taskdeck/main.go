// Command taskdeck is a terminal client for the task API.
//
// Usage:
//
//	taskdeck <command> [flags]
//
// Configuration is read from TASKDECK_* environment variables and an
// optional .env file in the working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "taskdeck: %v\n", err)
		}
		os.Exit(1)
	}
}

// errUsage is returned after usage text has already been printed.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", "Sign in and remember the session", cmdLogin},
	{"register", "Create an account", cmdRegister},
	{"logout", "Forget the stored session", cmdLogout},
	{"whoami", "Show the signed-in account", cmdWhoami},
	{"tasks", "List tasks with filters, search and sorting", cmdTasks},
	{"create", "Create a task", cmdCreate},
	{"update", "Update a task", cmdUpdate},
	{"delete", "Delete a task", cmdDelete},
	{"stats", "Show task statistics", cmdStats},
	{"dashboard", "Show statistics and upcoming work", cmdDashboard},
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		return errUsage
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return errUsage
	}

	a, cleanup, err := newApp(ctx, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	return cmd.run(ctx, a, args[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: taskdeck <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'taskdeck <command> -h' for command flags.")
}
