package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. With a command name it prints that
// command's usage line.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help [command]" }
func (c *HelpCmd) NeedsApp() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		cmd, found := DefaultRegistry.Find(args[0])
		if !found {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		fmt.Fprintf(out, "%s\n  %s\n", cmd.Usage(), cmd.Synopsis())
		return exitcode.Success
	}
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskboard                                        Show the first board
  taskboard serve [--listen <addr>]                Run the HTTP API
  taskboard new [--desc <text>] <board-name...>    Create a board
  taskboard boards                                 List boards
  taskboard show [--board <board>]
  taskboard rename [--board <board>] [--desc <text>] <board-name...>
  taskboard rmboard [--force] <board>
  taskboard add [--board <board>] [--status <s>] [--due <date>]
                [--reminder <date>] [--icon <i>] [--desc <text>] [--sync] <name...>
  taskboard edit [--board <board>] [--name <name>] [--status <s>]
                 [--due <date|none>] [--reminder <date|none>] [--icon <i>] [--desc <text>] <ref>
  taskboard mv [--board <board>] <ref> <status>
  taskboard done [--board <board>] <ref>
  taskboard rm [--board <board>] <ref>
  taskboard sync [--board <board>] <ref> on|off
  taskboard calendars [--use <calendar-id>]
  taskboard login [--force]
  taskboard help [command]
  taskboard version

References:
  <board>   position in 'taskboard boards' or a board id
  <ref>     column letter and position from 'taskboard show' (a1, b2),
            a bare number for the To Do column, or a task id
  <status>  todo, progress, done, wontdo
  <date>    YYYY-MM-DD or YYYY-MM-DDTHH:MM, local time

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
