package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskboard/internal/app"
	"taskboard/internal/boardstate"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&NewCmd{})
	Register(&BoardsCmd{})
	Register(&ShowCmd{})
	Register(&RenameCmd{})
	Register(&RmBoardCmd{})
}

// NewCmd implements the new command.
type NewCmd struct {
	description string
}

func (c *NewCmd) Name() string      { return "new" }
func (c *NewCmd) Aliases() []string { return []string{"newboard"} }
func (c *NewCmd) Synopsis() string  { return "Create a board" }
func (c *NewCmd) Usage() string     { return "taskboard new [--desc <text>] <board-name...>" }
func (c *NewCmd) NeedsApp() bool    { return true }

func (c *NewCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
}

// Run creates the board for the local user, creating that user on first use
// so the board is owned and can be synced.
func (c *NewCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: board name required")
		return exitcode.UserError
	}

	if _, err := a.EnsureLocalUser(ctx); err != nil {
		return fail(errOut, err)
	}
	b, err := a.Boards.CreateBoard(ctx, a.LocalSession(), name, c.description)
	if err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, b.ID)
	}
	return exitcode.Success
}

// BoardsCmd implements the boards command.
type BoardsCmd struct{}

func (c *BoardsCmd) Name() string      { return "boards" }
func (c *BoardsCmd) Aliases() []string { return []string{"ls"} }
func (c *BoardsCmd) Synopsis() string  { return "List boards" }
func (c *BoardsCmd) Usage() string     { return "taskboard boards [common flags]" }
func (c *BoardsCmd) NeedsApp() bool    { return true }

func (c *BoardsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardsCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	boards, err := a.Boards.ListBoards(ctx, a.LocalSession())
	if err != nil {
		return fail(errOut, err)
	}
	for i, summary := range boards {
		// The listing carries no tasks; load each board for its count.
		b, err := a.Boards.GetBoard(ctx, summary.ID)
		if err != nil {
			return fail(errOut, err)
		}
		output.FormatBoardLine(out, i+1, b)
	}
	return exitcode.Success
}

// ShowCmd implements the show command.
type ShowCmd struct {
	board string
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show a board's columns" }
func (c *ShowCmd) Usage() string     { return "taskboard show [--board <board>]" }
func (c *ShowCmd) NeedsApp() bool    { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	ref := c.board
	if ref == "" && len(args) > 0 {
		ref = args[0]
	}
	b, err := ResolveBoard(ctx, a, ref)
	if err != nil {
		return fail(errOut, err)
	}

	var st boardstate.State
	st.SetBoard(b)
	st.SetCalendarAccess(a.Tokens.Connected(ctx, a.LocalSession().UserID))
	output.FormatBoard(out, b, st.Columns(), time.Local)
	if !st.HasCalendarAccess() && hasSyncIntent(b) && !cfg.Quiet {
		fmt.Fprintln(errOut, "warning: calendar not connected (run: taskboard login)")
	}
	return exitcode.Success
}

// RenameCmd implements the rename command.
type RenameCmd struct {
	board       string
	description string
}

func (c *RenameCmd) Name() string      { return "rename" }
func (c *RenameCmd) Aliases() []string { return nil }
func (c *RenameCmd) Synopsis() string  { return "Rename a board" }
func (c *RenameCmd) Usage() string {
	return "taskboard rename [--board <board>] [--desc <text>] <board-name...>"
}
func (c *RenameCmd) NeedsApp() bool { return true }

func (c *RenameCmd) RegisterFlags(fs *flag.FlagSet) {
	registerBoardFlag(fs, &c.board)
	fs.StringVar(&c.description, "desc", "", "")
}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" && c.description == "" {
		fmt.Fprintln(errOut, "error: board name required")
		return exitcode.UserError
	}
	b, err := ResolveBoard(ctx, a, c.board)
	if err != nil {
		return fail(errOut, err)
	}
	description := c.description
	if description == "" {
		description = b.Description
	}
	if _, err := a.Boards.UpdateBoard(ctx, a.LocalSession(), b.ID, name, description); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

// RmBoardCmd implements the rmboard command.
type RmBoardCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmBoardCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmBoardCmd) Name() string      { return "rmboard" }
func (c *RmBoardCmd) Aliases() []string { return nil }
func (c *RmBoardCmd) Synopsis() string  { return "Delete a board and its tasks" }
func (c *RmBoardCmd) Usage() string     { return "taskboard rmboard [--force] <board>" }
func (c *RmBoardCmd) NeedsApp() bool    { return true }

func (c *RmBoardCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmBoardCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: board reference required")
		return exitcode.UserError
	}
	b, err := ResolveBoard(ctx, a, args[0])
	if err != nil {
		return fail(errOut, err)
	}

	// Deleting a board removes its calendar events too.
	if !c.force && hasSyncIntent(b) {
		fmt.Fprintln(errOut, "error: board has calendar-synced tasks (use --force)")
		return exitcode.UserError
	}

	if err := a.Boards.DeleteBoard(ctx, a.LocalSession(), b.ID); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}

func registerBoardFlag(fs *flag.FlagSet, board *string) {
	fs.StringVar(board, "board", "", "")
	fs.StringVar(board, "b", "", "")
}

func hasSyncIntent(b service.Board) bool {
	for _, t := range b.Tasks {
		if t.IsCalendarSynced {
			return true
		}
	}
	return false
}
