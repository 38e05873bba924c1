// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsApp returns true if the command needs the database and token manager.
	// Commands like help and version return false.
	NeedsApp() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// a is nil if NeedsApp() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int
}

// fail prints err and returns the exit code it maps to.
func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	if errors.Is(err, errNoBoards) {
		return exitcode.UserError
	}
	return exitcode.FromError(err)
}

// ok prints "ok" unless quiet and returns success.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// whenLayouts are the accepted --due and --reminder formats, in local time.
var whenLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseWhen parses a date flag. "" leaves the value unset and "none" clears it.
func parseWhen(s string) (t *time.Time, set bool, err error) {
	switch s {
	case "":
		return nil, false, nil
	case "none":
		return nil, true, nil
	}
	for _, layout := range whenLayouts {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			v = v.UTC()
			return &v, true, nil
		}
	}
	return nil, false, fmt.Errorf("invalid date: %s (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)", s)
}

// formOf returns the form that leaves t unchanged when passed to UpdateTask.
func formOf(t service.Task) service.TaskForm {
	return service.TaskForm{
		Name:             t.Name,
		Description:      t.Description,
		Icon:             t.Icon,
		Status:           t.Status,
		DueDate:          t.DueDate,
		ReminderTime:     t.ReminderTime,
		IsCalendarSynced: t.IsCalendarSynced,
	}
}

// syncMissing reports a task that asked for calendar sync but has no event
// where one is expected.
func syncMissing(t service.Task) bool {
	return !t.IsCalendarSynced || (t.DueDate != nil && t.CalendarEventID == "")
}

// warnUnsynced tells the user why a requested calendar sync did not stick.
func warnUnsynced(ctx context.Context, a *app.App, errOut io.Writer) {
	if !a.Tokens.Connected(ctx, a.LocalSession().UserID) {
		fmt.Fprintln(errOut, "warning: calendar not connected (run: taskboard login)")
		return
	}
	fmt.Fprintln(errOut, "warning: calendar sync failed, task saved without calendar event")
}
