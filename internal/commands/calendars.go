package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&CalendarsCmd{})
}

// CalendarsCmd shows the calendar settings and, with --use, changes the
// calendar new events go to.
type CalendarsCmd struct {
	use string
}

func (c *CalendarsCmd) Name() string      { return "calendars" }
func (c *CalendarsCmd) Aliases() []string { return nil }
func (c *CalendarsCmd) Synopsis() string  { return "Show calendar settings" }
func (c *CalendarsCmd) Usage() string     { return "taskboard calendars [--use <calendar-id>]" }
func (c *CalendarsCmd) NeedsApp() bool    { return true }

func (c *CalendarsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.use, "use", "", "")
}

func (c *CalendarsCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	sess := a.LocalSession()
	if !sess.Authenticated() {
		fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
		return exitcode.AuthError
	}

	settings, calendars, err := a.Boards.CalendarSettings(ctx, sess)
	if err != nil {
		return fail(errOut, err)
	}

	if c.use != "" {
		if len(calendars) > 0 && !hasCalendar(calendars, c.use) {
			fmt.Fprintf(errOut, "error: calendar not found: %s\n", c.use)
			return exitcode.UserError
		}
		settings.DefaultCalendarID = c.use
		if _, err := a.Boards.UpdateCalendarSettings(ctx, sess, settings); err != nil {
			return fail(errOut, err)
		}
		return ok(cfg, out)
	}

	output.FormatSettings(out, settings, calendars)
	return exitcode.Success
}

func hasCalendar(calendars []service.CalendarEntry, id string) bool {
	for _, cal := range calendars {
		if cal.ID == id {
			return true
		}
	}
	return false
}
