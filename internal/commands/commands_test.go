package commands_test

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"taskboard/internal/app"
	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/testutil"
	"taskboard/internal/tokens"
)

// env is an application wired to in-memory fakes.
type env struct {
	cfg   *config.Config
	store *testutil.FakeStore
	cal   *testutil.FakeCalendar
	app   *app.App
}

// newEnv creates an env. A non-empty user becomes the local CLI user with a
// connected calendar.
func newEnv(t *testing.T, user string) *env {
	t.Helper()
	e := &env{
		cfg:   &config.Config{Dir: t.TempDir(), SyncTimeout: time.Second},
		store: testutil.NewFakeStore(),
		cal:   testutil.NewFakeCalendar(),
	}
	oauthCfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{AuthURL: "https://auth.example/auth", TokenURL: "https://auth.example/token"},
	}
	tm := tokens.New(oauthCfg, e.store, func(ctx context.Context, _ *http.Client) (service.Calendar, error) {
		return e.cal, nil
	})
	e.app = app.Wire(e.cfg, e.store, tm, nil, nil)

	if user != "" {
		if err := e.store.CreateUser(context.Background(), service.User{ID: user, Name: "Demo User"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if err := e.cfg.SaveLocalUserID(user); err != nil {
			t.Fatalf("SaveLocalUserID: %v", err)
		}
		e.store.SetTokens(service.GoogleTokens{
			UserID:       user,
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    time.Now().Add(24 * time.Hour),
		})
	}
	return e
}

// board creates a board for the local user. Its starter tasks are a1, b1, c1
// and d1.
func (e *env) board(t *testing.T, name string) service.Board {
	t.Helper()
	b, err := e.app.Boards.CreateBoard(context.Background(), e.app.LocalSession(), name, "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	return b
}

func (e *env) tasks(t *testing.T, boardID string) []service.Task {
	t.Helper()
	b, err := e.app.Boards.GetBoard(context.Background(), boardID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	return b.Tasks
}

func (e *env) taskNamed(t *testing.T, boardID, name string) service.Task {
	t.Helper()
	for _, task := range e.tasks(t, boardID) {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("task %q not found", name)
	return service.Task{}
}

// runCommand is a helper to run a command against an env. e may be nil for
// commands that do not need the app.
func runCommand(t *testing.T, cmd commands.Command, e *env, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{Dir: t.TempDir()}
	var a *app.App
	if e != nil {
		cfg = e.cfg
		a = e.app
	}
	cfg.Quiet = quiet

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, a, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// newFlagSet registers cmd's flags so tests can parse command lines.
func newFlagSet(cmd commands.Command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return fs
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskboard 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") || !strings.Contains(stdout, "taskboard sync") {
		t.Errorf("unexpected help output %q", stdout)
	}
}

func TestHelpCommand_ForCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"mv"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "taskboard mv ") {
		t.Errorf("expected mv usage, got %q", stdout)
	}

	_, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"nope"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: nope\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestNewCommand_CreatesLocalUser(t *testing.T) {
	e := newEnv(t, "")

	stdout, stderr, code := runCommand(t, &commands.NewCmd{}, e, []string{"Home", "chores"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	id := strings.TrimSpace(stdout)
	b, ok := e.store.Board(id)
	if !ok {
		t.Fatalf("expected board %q to exist", id)
	}
	if b.Name != "Home chores" {
		t.Errorf("expected %q, got %q", "Home chores", b.Name)
	}
	local := e.cfg.LocalUserID()
	if local == "" || b.UserID != local {
		t.Errorf("expected board owned by local user %q, got %q", local, b.UserID)
	}
	if got := len(e.tasks(t, id)); got != 4 {
		t.Errorf("expected 4 starter tasks, got %d", got)
	}
}

func TestNewCommand_NoName(t *testing.T) {
	e := newEnv(t, "u1")

	_, stderr, code := runCommand(t, &commands.NewCmd{}, e, []string{"  "}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: board name required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestBoardsCommand(t *testing.T) {
	e := newEnv(t, "u1")
	home := e.board(t, "Home")
	work := e.board(t, "Work")

	stdout, stderr, code := runCommand(t, &commands.BoardsCmd{}, e, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	expected := "   1  Home (4 tasks)  " + home.ID + "\n" +
		"   2  Work (4 tasks)  " + work.ID + "\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestShowCommand(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, e, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{"Home\n", "[a] To Do\n", "[d] Won't do\n", "   1  📋 Task To Do\n", "   1  ❌ Task Won't Do\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

func TestShowCommand_ByPosition(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")
	e.board(t, "Work")

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, e, []string{"2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "Work\n") {
		t.Errorf("expected Work board, got:\n%s", stdout)
	}

	_, stderr, code := runCommand(t, &commands.ShowCmd{}, e, []string{"3"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "board 3") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand_NoBoards(t *testing.T) {
	e := newEnv(t, "u1")

	_, stderr, code := runCommand(t, &commands.ShowCmd{}, e, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: no boards (run: taskboard new <name>)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_Success(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	cmd := &commands.AddCmd{}
	stdout, stderr, code := runCommand(t, cmd, e, []string{"Pay", "rent"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	task := e.taskNamed(t, b.ID, "Pay rent")
	if task.Status != service.StatusToDo || task.Icon != service.DefaultIcon {
		t.Errorf("unexpected defaults %+v", task)
	}
	if e.cal.Count("create") != 0 {
		t.Errorf("expected no calendar calls, got %d", len(e.cal.Calls()))
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	stdout, _, code := runCommand(t, &commands.AddCmd{}, e, []string{"Quiet task"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoName(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	_, stderr, code := runCommand(t, &commands.AddCmd{}, e, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task name required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_SyncedWithDueDate(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--sync", "--due", "2030-01-15T09:30", "--status", "progress", "Pay rent"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	task := e.taskNamed(t, b.ID, "Pay rent")
	if !task.IsCalendarSynced || task.CalendarEventID == "" {
		t.Errorf("expected synced task with event, got %+v", task)
	}
	if task.Status != service.StatusInProgress {
		t.Errorf("expected %q, got %q", service.StatusInProgress, task.Status)
	}
	want := time.Date(2030, 1, 15, 9, 30, 0, 0, time.Local)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Errorf("expected due %v, got %v", want, task.DueDate)
	}
	if e.cal.Count("create") != 1 {
		t.Errorf("expected 1 create, got %d", e.cal.Count("create"))
	}
}

func TestAddCommand_SyncWithoutCalendar(t *testing.T) {
	e := newEnv(t, "")
	b, err := e.app.Boards.CreateBoard(context.Background(), service.Session{}, "Shared", "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--sync", "--due", "2030-01-15", "Dentist"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stderr, "calendar not connected") {
		t.Errorf("expected warning, got %q", stderr)
	}
	task := e.taskNamed(t, b.ID, "Dentist")
	if !task.IsCalendarSynced || task.CalendarEventID != "" {
		t.Errorf("expected intent kept without an event, got (%v, %q)", task.IsCalendarSynced, task.CalendarEventID)
	}
	if len(e.cal.Calls()) != 0 {
		t.Errorf("expected no calendar calls, got %+v", e.cal.Calls())
	}
}

func TestAddCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"status", []string{"--status", "later", "x"}, "error: invalid status: later\n"},
		{"due", []string{"--due", "tomorrow", "x"}, "error: invalid date: tomorrow (use YYYY-MM-DD or YYYY-MM-DDTHH:MM)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, "u1")
			e.board(t, "Home")
			cmd := &commands.AddCmd{}
			fs := newFlagSet(cmd)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if n := e.store.Writes("CreateTask"); n != 4 {
				t.Errorf("expected only the starter tasks, got %d creates", n)
			}
		})
	}
}

func TestAddCommand_ReminderAfterDue(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")
	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--due", "2030-01-15T09:00", "--reminder", "2030-01-15T10:00", "x"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: reminderTime: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	cmd := &commands.EditCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--name", "Water plants", "--icon", "🪴", "a1"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	task := e.taskNamed(t, b.ID, "Water plants")
	if task.Icon != "🪴" || task.Status != service.StatusToDo {
		t.Errorf("unexpected task %+v", task)
	}
	if task.Description != "This is a task that needs to be done." {
		t.Errorf("expected description kept, got %q", task.Description)
	}
}

func TestEditCommand_ClearDescription(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	cmd := &commands.EditCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--desc", "", "a1"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	task := e.taskNamed(t, b.ID, "Task To Do")
	if task.Description != "" {
		t.Errorf("expected description cleared, got %q", task.Description)
	}
}

func TestEditCommand_ClearDueDetachesEvent(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")
	due := time.Now().Add(48 * time.Hour).UTC()
	if _, err := e.app.Boards.CreateTask(context.Background(), e.app.LocalSession(), b.ID,
		service.TaskForm{Name: "Dentist", DueDate: &due, IsCalendarSynced: true}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task := e.taskNamed(t, b.ID, "Dentist")

	cmd := &commands.EditCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--due", "none", task.ID}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, fs.Args(), false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	got := e.taskNamed(t, b.ID, "Dentist")
	if got.DueDate != nil || got.CalendarEventID != "" {
		t.Errorf("expected due date and event cleared, got %+v", got)
	}
	if e.cal.Live() != 0 {
		t.Errorf("expected remote event deleted, %d live", e.cal.Live())
	}
}

func TestEditCommand_NotFound(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	_, stderr, code := runCommand(t, &commands.EditCmd{}, e, []string{"a9"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task a9: not found\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestMvCommand(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	_, stderr, code := runCommand(t, &commands.MvCmd{}, e, []string{"a1", "wont", "do"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if task := e.taskNamed(t, b.ID, "Task To Do"); task.Status != service.StatusWontDo {
		t.Errorf("expected %q, got %q", service.StatusWontDo, task.Status)
	}
}

func TestMvCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"missing status", []string{"a1"}, exitcode.UserError, "error: task reference and status required\n"},
		{"bad status", []string{"a1", "someday"}, exitcode.UserError, "error: invalid status: someday\n"},
		{"bad column", []string{"e1", "done"}, exitcode.UserError, "error: invalid task reference: e1\n"},
		{"zero", []string{"0", "done"}, exitcode.UserError, "error: invalid task reference: 0\n"},
		{"draft", []string{"new", "done"}, exitcode.UserError, "error: task new: not found\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, "u1")
			e.board(t, "Home")

			_, stderr, code := runCommand(t, &commands.MvCmd{}, e, tt.args, false)

			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestDoneCommand_SyncedTaskUpdatesEvent(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")
	due := time.Now().Add(48 * time.Hour).UTC()
	if _, err := e.app.Boards.CreateTask(context.Background(), e.app.LocalSession(), b.ID,
		service.TaskForm{Name: "Dentist", DueDate: &due, IsCalendarSynced: true}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Dentist is the second To Do task.
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, e, []string{"2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	task := e.taskNamed(t, b.ID, "Dentist")
	if task.Status != service.StatusCompleted {
		t.Errorf("expected %q, got %q", service.StatusCompleted, task.Status)
	}
	if e.cal.Count("update") != 1 {
		t.Errorf("expected 1 update, got %d", e.cal.Count("update"))
	}
	ev, _ := e.cal.Event(task.CalendarEventID)
	if ev.Private["status"] != string(service.StatusCompleted) {
		t.Errorf("expected event status metadata updated, got %v", ev.Private)
	}
}

func TestDoneCommand_NoRef(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, e, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmCommand_Success(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, e, []string{"c1"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	for _, task := range e.tasks(t, b.ID) {
		if task.Name == "Task Completed" {
			t.Error("expected completed starter task to be deleted")
		}
	}
}

func TestRmCommand_DraftIsNoop(t *testing.T) {
	e := newEnv(t, "u1")
	e.board(t, "Home")

	_, _, code := runCommand(t, &commands.RmCmd{}, e, []string{service.NewTaskID}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if n := e.store.Writes("DeleteTask"); n != 0 {
		t.Errorf("expected no deletes, got %d", n)
	}
}

func TestRmCommand_ForeignBoard(t *testing.T) {
	e := newEnv(t, "u1")
	other := service.Board{ID: "b9", Name: "Theirs", UserID: "u9"}
	e.store.AddBoard(other)
	e.store.AddTask(service.Task{ID: "t9", Name: "Secret", Status: service.StatusToDo, BoardID: "b9"})

	// Task deletion is not owner-checked.
	_, _, code := runCommand(t, &commands.RmCmd{}, e, []string{"t9"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if _, ok := e.store.Task("t9"); ok {
		t.Error("expected task deleted")
	}
}

func TestSyncCommand(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")
	due := time.Now().Add(48 * time.Hour).UTC()
	if _, err := e.app.Boards.CreateTask(context.Background(), e.app.LocalSession(), b.ID,
		service.TaskForm{Name: "Dentist", DueDate: &due}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task := e.taskNamed(t, b.ID, "Dentist")

	_, stderr, code := runCommand(t, &commands.SyncCmd{}, e, []string{task.ID, "on"}, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if e.cal.Live() != 1 {
		t.Errorf("expected 1 live event, got %d", e.cal.Live())
	}

	_, stderr, code = runCommand(t, &commands.SyncCmd{}, e, []string{task.ID, "off"}, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if e.cal.Live() != 0 {
		t.Errorf("expected event removed, got %d live", e.cal.Live())
	}
	if got := e.taskNamed(t, b.ID, "Dentist"); got.IsCalendarSynced || got.CalendarEventID != "" {
		t.Errorf("expected unsynced task, got %+v", got)
	}
}

func TestSyncCommand_Errors(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		e := newEnv(t, "")
		_, stderr, code := runCommand(t, &commands.SyncCmd{}, e, []string{"a1", "on"}, false)
		if code != exitcode.AuthError {
			t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
		}
		if stderr != "error: not logged in (run: taskboard login)\n" {
			t.Errorf("unexpected stderr %q", stderr)
		}
	})

	t.Run("bad mode", func(t *testing.T) {
		e := newEnv(t, "u1")
		_, stderr, code := runCommand(t, &commands.SyncCmd{}, e, []string{"a1", "maybe"}, false)
		if code != exitcode.UserError {
			t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
		}
		if stderr != "error: expected on or off, got maybe\n" {
			t.Errorf("unexpected stderr %q", stderr)
		}
	})

	t.Run("calendar failure", func(t *testing.T) {
		e := newEnv(t, "u1")
		b := e.board(t, "Home")
		due := time.Now().Add(48 * time.Hour).UTC()
		if _, err := e.app.Boards.CreateTask(context.Background(), e.app.LocalSession(), b.ID,
			service.TaskForm{Name: "Dentist", DueDate: &due}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		e.cal.CreateErr = service.ErrRemoteSync

		_, stderr, code := runCommand(t, &commands.SyncCmd{}, e, []string{"a2", "on"}, false)
		if code != exitcode.BackendError {
			t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
		}
		if stderr != "error: calendar sync failed\n" {
			t.Errorf("unexpected stderr %q", stderr)
		}
	})
}

func TestRenameCommand(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")

	_, stderr, code := runCommand(t, &commands.RenameCmd{}, e, []string{"House"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if got, _ := e.store.Board(b.ID); got.Name != "House" {
		t.Errorf("expected %q, got %q", "House", got.Name)
	}
}

func TestRmBoardCommand(t *testing.T) {
	e := newEnv(t, "u1")
	b := e.board(t, "Home")
	due := time.Now().Add(48 * time.Hour).UTC()
	if _, err := e.app.Boards.CreateTask(context.Background(), e.app.LocalSession(), b.ID,
		service.TaskForm{Name: "Dentist", DueDate: &due, IsCalendarSynced: true}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	cmd := &commands.RmBoardCmd{}
	_, stderr, code := runCommand(t, cmd, e, []string{"1"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: board has calendar-synced tasks (use --force)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	cmd.SetForce(true)
	_, stderr, code = runCommand(t, cmd, e, []string{b.ID}, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if _, ok := e.store.Board(b.ID); ok {
		t.Error("expected board deleted")
	}
	if e.cal.Live() != 0 {
		t.Errorf("expected events removed, got %d live", e.cal.Live())
	}
}

func TestRmBoardCommand_Forbidden(t *testing.T) {
	e := newEnv(t, "u1")
	e.store.AddBoard(service.Board{ID: "b9", Name: "Theirs", UserID: "u9"})

	_, stderr, code := runCommand(t, &commands.RmBoardCmd{}, e, []string{"b9"}, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "owned by another user") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestCalendarsCommand(t *testing.T) {
	e := newEnv(t, "u1")

	stdout, stderr, code := runCommand(t, &commands.CalendarsCmd{}, e, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stdout, "calendar:         primary\n") || !strings.Contains(stdout, "* Me  me@example.com\n") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestCalendarsCommand_Use(t *testing.T) {
	e := newEnv(t, "u1")
	e.cal.Calendars = append(e.cal.Calendars, service.CalendarEntry{ID: "work@example.com", Summary: "Work"})

	cmd := &commands.CalendarsCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--use", "work@example.com"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code := runCommand(t, cmd, e, nil, true)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	s, err := e.store.GetCalendarSettings(context.Background(), "u1")
	if err != nil || s.DefaultCalendarID != "work@example.com" {
		t.Errorf("expected default calendar stored, got %+v (%v)", s, err)
	}

	fs = newFlagSet(cmd)
	if err := fs.Parse([]string{"--use", "nope"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, stderr, code = runCommand(t, cmd, e, nil, true)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: calendar not found: nope\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestCalendarsCommand_NotLoggedIn(t *testing.T) {
	e := newEnv(t, "")

	_, _, code := runCommand(t, &commands.CalendarsCmd{}, e, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
}
