package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&EditCmd{})
	Register(&MvCmd{})
	Register(&DoneCmd{})
	Register(&RmCmd{})
	Register(&SyncCmd{})
}

// taskFlags are the task fields settable from the command line.
type taskFlags struct {
	board       string
	name        string
	description string
	descSet     bool
	icon        string
	status      string
	due         string
	reminder    string
}

func (f *taskFlags) register(fs *flag.FlagSet) {
	registerBoardFlag(fs, &f.board)
	fs.Func("desc", "", func(v string) error {
		f.description, f.descSet = v, true
		return nil
	})
	fs.StringVar(&f.icon, "icon", "", "")
	fs.StringVar(&f.status, "status", "", "")
	fs.StringVar(&f.status, "s", "", "")
	fs.StringVar(&f.due, "due", "", "")
	fs.StringVar(&f.reminder, "reminder", "", "")
}

// apply overlays the flags that were given onto form.
func (f *taskFlags) apply(form *service.TaskForm) error {
	if f.name != "" {
		form.Name = f.name
	}
	if f.descSet {
		form.Description = f.description
	}
	if f.icon != "" {
		form.Icon = f.icon
	}
	if f.status != "" {
		st, valid := service.ParseStatus(f.status)
		if !valid {
			return fmt.Errorf("invalid status: %s", f.status)
		}
		form.Status = st
	}
	due, set, err := parseWhen(f.due)
	if err != nil {
		return err
	}
	if set {
		form.DueDate = due
	}
	reminder, set, err := parseWhen(f.reminder)
	if err != nil {
		return err
	}
	if set {
		form.ReminderTime = reminder
	}
	return nil
}

// AddCmd implements the add command.
type AddCmd struct {
	taskFlags
	sync bool
}

// SetBoard sets the board reference (for testing).
func (c *AddCmd) SetBoard(ref string) {
	c.board = ref
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskboard add [--board <board>] [--status <s>] [--due <date>] [--reminder <date>] [--icon <i>] [--desc <text>] [--sync] <name...>"
}
func (c *AddCmd) NeedsApp() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.taskFlags.register(fs)
	fs.BoolVar(&c.sync, "sync", false, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: task name required")
		return exitcode.UserError
	}

	form := service.TaskForm{Name: name, IsCalendarSynced: c.sync}
	if err := c.taskFlags.apply(&form); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	b, err := ResolveBoard(ctx, a, c.board)
	if err != nil {
		return fail(errOut, err)
	}
	before := make(map[string]bool, len(b.Tasks))
	for _, t := range b.Tasks {
		before[t.ID] = true
	}

	b, err = a.Boards.CreateTask(ctx, a.LocalSession(), b.ID, form)
	if err != nil {
		return fail(errOut, err)
	}
	if form.IsCalendarSynced {
		for _, t := range b.Tasks {
			if !before[t.ID] && syncMissing(t) {
				warnUnsynced(ctx, a, errOut)
			}
		}
	}
	return ok(cfg, out)
}

// EditCmd implements the edit command. Only the given flags change.
type EditCmd struct {
	taskFlags
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "taskboard edit [--board <board>] [--name <name>] [--status <s>] [--due <date|none>] [--reminder <date|none>] [--icon <i>] [--desc <text>] <ref>"
}
func (c *EditCmd) NeedsApp() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.taskFlags.register(fs)
	fs.StringVar(&c.name, "name", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	t, code := lookupArg(ctx, a, c.board, args, errOut)
	if code != exitcode.Success {
		return code
	}

	form := formOf(t)
	if err := c.taskFlags.apply(&form); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	updated, err := a.Boards.UpdateTask(ctx, a.LocalSession(), t.ID, form)
	if err != nil {
		return fail(errOut, err)
	}
	if form.IsCalendarSynced && syncMissing(updated) {
		warnUnsynced(ctx, a, errOut)
	}
	return ok(cfg, out)
}

// MvCmd implements the mv command.
type MvCmd struct {
	board string
}

func (c *MvCmd) Name() string      { return "mv" }
func (c *MvCmd) Aliases() []string { return []string{"move"} }
func (c *MvCmd) Synopsis() string  { return "Move a task to another column" }
func (c *MvCmd) Usage() string     { return "taskboard mv [--board <board>] <ref> <status>" }
func (c *MvCmd) NeedsApp() bool    { return true }

func (c *MvCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
}

func (c *MvCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task reference and status required")
		return exitcode.UserError
	}
	status, valid := service.ParseStatus(strings.Join(args[1:], " "))
	if !valid {
		fmt.Fprintf(errOut, "error: invalid status: %s\n", strings.Join(args[1:], " "))
		return exitcode.UserError
	}
	return moveTask(ctx, cfg, a, c.board, args[:1], status, out, errOut)
}

// DoneCmd implements the done command, a shortcut for moving to Completed.
type DoneCmd struct {
	board string
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskboard done [--board <board>] <ref>" }
func (c *DoneCmd) NeedsApp() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	return moveTask(ctx, cfg, a, c.board, args, service.StatusCompleted, out, errOut)
}

func moveTask(ctx context.Context, cfg *config.Config, a *app.App, board string, args []string, status service.Status, out, errOut io.Writer) int {
	t, code := lookupArg(ctx, a, board, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if _, err := a.Boards.MoveTaskStatus(ctx, a.LocalSession(), t.ID, status); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// RmCmd implements the rm command.
type RmCmd struct {
	board string
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskboard rm [--board <board>] <ref>" }
func (c *RmCmd) NeedsApp() bool    { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	ref, code := parseArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	// Ids go straight to the service, which treats the draft id as a no-op.
	id := ref.ID
	if id == "" {
		t, err := findTask(ctx, a, c.board, ref)
		if err != nil {
			return fail(errOut, err)
		}
		id = t.ID
	}
	if err := a.Boards.DeleteTask(ctx, a.LocalSession(), id); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// SyncCmd implements the sync command.
type SyncCmd struct {
	board string
}

func (c *SyncCmd) Name() string      { return "sync" }
func (c *SyncCmd) Aliases() []string { return nil }
func (c *SyncCmd) Synopsis() string  { return "Turn calendar sync on or off for a task" }
func (c *SyncCmd) Usage() string     { return "taskboard sync [--board <board>] <ref> on|off" }
func (c *SyncCmd) NeedsApp() bool    { return true }

func (c *SyncCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
}

func (c *SyncCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task reference and on|off required")
		return exitcode.UserError
	}
	var want bool
	switch args[1] {
	case "on":
		want = true
	case "off":
	default:
		fmt.Fprintf(errOut, "error: expected on or off, got %s\n", args[1])
		return exitcode.UserError
	}

	sess := a.LocalSession()
	if !sess.Authenticated() {
		fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
		return exitcode.AuthError
	}

	t, code := lookupArg(ctx, a, c.board, args[:1], errOut)
	if code != exitcode.Success {
		return code
	}
	synced, err := a.Boards.ToggleCalendarSync(ctx, sess, t.ID, want)
	if err != nil {
		return fail(errOut, err)
	}
	if want && !synced {
		if !a.Tokens.Connected(ctx, sess.UserID) {
			fmt.Fprintln(errOut, "error: calendar not connected (run: taskboard login)")
			return exitcode.AuthError
		}
		fmt.Fprintln(errOut, "error: calendar sync failed")
		return exitcode.BackendError
	}
	return ok(cfg, out)
}

func parseArg(args []string, errOut io.Writer) (TaskRef, int) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	ref, err := ParseTaskRef(arg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return TaskRef{}, exitcode.UserError
	}
	return ref, exitcode.Success
}

func lookupArg(ctx context.Context, a *app.App, board string, args []string, errOut io.Writer) (service.Task, int) {
	ref, code := parseArg(args, errOut)
	if code != exitcode.Success {
		return service.Task{}, code
	}
	t, err := findTask(ctx, a, board, ref)
	if err != nil {
		return service.Task{}, fail(errOut, err)
	}
	return t, exitcode.Success
}
