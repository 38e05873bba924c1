// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskboard/internal/boardstate"
	"taskboard/internal/service"
)

const (
	// ColumnSeparator is the separator line around column headers.
	ColumnSeparator = "------------"

	// DateLayout is used for due dates and reminders.
	DateLayout = "2006-01-02 15:04"
)

// ColumnLetter returns the reference letter of the i-th column ('a' for To Do).
func ColumnLetter(i int) rune {
	return rune('a' + i)
}

// FormatBoard writes the board title followed by every column.
func FormatBoard(w io.Writer, b service.Board, cols []boardstate.Column, loc *time.Location) {
	title := normalize(b.Name)
	fmt.Fprintln(w, title)
	if desc := strings.TrimSpace(b.Description); desc != "" {
		fmt.Fprintln(w, oneLine(desc))
	}
	for i, col := range cols {
		FormatColumnHeader(w, ColumnLetter(i), col.Status)
		if len(col.Tasks) == 0 {
			fmt.Fprintln(w, "      (empty)")
			continue
		}
		for n, t := range col.Tasks {
			FormatTask(w, n+1, t, loc)
		}
	}
}

// FormatColumnHeader formats a column section header.
func FormatColumnHeader(w io.Writer, letter rune, status service.Status) {
	fmt.Fprintln(w, ColumnSeparator)
	fmt.Fprintf(w, "[%c] %s\n", letter, status)
	fmt.Fprintln(w, ColumnSeparator)
}

// FormatTask formats a task line.
// Format: "{N:>4}  {ICON} {NAME}[  due {DATE}][  [cal]]\n"
func FormatTask(w io.Writer, num int, t service.Task, loc *time.Location) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%4d  ", num)
	if t.Icon != "" {
		sb.WriteString(t.Icon)
		sb.WriteByte(' ')
	}
	sb.WriteString(normalize(t.Name))
	if t.DueDate != nil {
		sb.WriteString("  due ")
		sb.WriteString(t.DueDate.In(loc).Format(DateLayout))
	}
	if t.IsCalendarSynced {
		sb.WriteString("  [cal]")
	}
	fmt.Fprintln(w, sb.String())
}

// FormatBoardLine formats a board line for the boards command.
// Format: "{N:>4}  {NAME} ({K} tasks)  {ID}\n"
func FormatBoardLine(w io.Writer, num int, b service.Board) {
	noun := "tasks"
	if len(b.Tasks) == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%4d  %s (%d %s)  %s\n", num, normalize(b.Name), len(b.Tasks), noun, b.ID)
}

// FormatTaskDetail writes every field of a task, one per line.
func FormatTaskDetail(w io.Writer, t service.Task, loc *time.Location) {
	fmt.Fprintf(w, "id:        %s\n", t.ID)
	fmt.Fprintf(w, "name:      %s\n", normalize(t.Name))
	fmt.Fprintf(w, "status:    %s\n", t.Status)
	if t.Description != "" {
		fmt.Fprintf(w, "notes:     %s\n", oneLine(t.Description))
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "due:       %s\n", t.DueDate.In(loc).Format(DateLayout))
	}
	if t.ReminderTime != nil {
		fmt.Fprintf(w, "reminder:  %s\n", t.ReminderTime.In(loc).Format(DateLayout))
	}
	synced := "no"
	if t.IsCalendarSynced {
		synced = "yes"
	}
	fmt.Fprintf(w, "calendar:  %s\n", synced)
}

// FormatSettings writes calendar settings and the user's calendars. The
// default calendar is marked with "*".
func FormatSettings(w io.Writer, s service.CalendarSettings, calendars []service.CalendarEntry) {
	fmt.Fprintf(w, "enabled:          %t\n", s.Enabled)
	fmt.Fprintf(w, "calendar:         %s\n", s.CalendarID())
	fmt.Fprintf(w, "sync completed:   %t\n", s.SyncCompletedTasks)
	fmt.Fprintf(w, "sync won't do:    %t\n", s.SyncWontDoTasks)
	if len(calendars) == 0 {
		return
	}
	fmt.Fprintln(w, ColumnSeparator)
	for _, c := range calendars {
		mark := " "
		if c.ID == s.CalendarID() || (c.Primary && s.CalendarID() == service.PrimaryCalendarID) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", mark, normalize(c.Summary), c.ID)
	}
}

// normalize makes a name printable on one line.
// Empty or whitespace-only names become "(untitled)".
func normalize(s string) string {
	s = oneLine(s)
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
