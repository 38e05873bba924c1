// Package service defines the domain types and backend-agnostic interfaces
// shared by the store, the calendar backend and the mutation service.
package service

import (
	"strings"
	"time"
)

// Status is the column a task lives in.
type Status string

// Task statuses. Values match the wire format used by the web client.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusWontDo     Status = "Won't do"
)

// Statuses lists every status in column order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusCompleted, StatusWontDo}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts the wire value or a short alias (todo, progress, done, wontdo).
func ParseStatus(s string) (Status, bool) {
	if st := Status(s); st.Valid() {
		return st, true
	}
	switch strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "", "'", "").Replace(s)) {
	case "todo":
		return StatusToDo, true
	case "inprogress", "progress", "doing":
		return StatusInProgress, true
	case "completed", "done":
		return StatusCompleted, true
	case "wontdo":
		return StatusWontDo, true
	}
	return "", false
}

const (
	// DefaultIcon is used when a task is created without an icon.
	DefaultIcon = "📝"

	// NewTaskID is the id the web client uses for a draft task that has not
	// been saved yet.
	NewTaskID = "new"

	// PrimaryCalendarID is the Google alias for the user's main calendar.
	PrimaryCalendarID = "primary"
)

// Task is a unit of work on a board.
type Task struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	Status           Status     `json:"status"`
	BoardID          string     `json:"boardId"`
	DueDate          *time.Time `json:"dueDate"`
	ReminderTime     *time.Time `json:"reminderTime"`
	IsCalendarSynced bool       `json:"isCalendarSynced"`
	CalendarEventID  string     `json:"calendarEventId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Board is a named collection of tasks. An empty UserID marks an orphan board.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      string    `json:"userId,omitempty"`
	Tasks       []Task    `json:"tasks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Task returns the task with the given id, if the board holds it.
func (b Board) Task(id string) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// User is an account. Demo users are created on first login.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CalendarSettings holds a user's calendar preferences.
// SyncCompletedTasks and SyncWontDoTasks are advisory for clients.
type CalendarSettings struct {
	UserID             string `json:"userId"`
	Enabled            bool   `json:"enabled"`
	DefaultCalendarID  string `json:"defaultCalendarId,omitempty"`
	SyncCompletedTasks bool   `json:"syncCompletedTasks"`
	SyncWontDoTasks    bool   `json:"syncWontDoTasks"`
}

// CalendarID returns the target calendar, falling back to "primary".
func (s CalendarSettings) CalendarID() string {
	if s.DefaultCalendarID == "" {
		return PrimaryCalendarID
	}
	return s.DefaultCalendarID
}

// DefaultCalendarSettings returns the settings created for new users.
func DefaultCalendarSettings(userID string) CalendarSettings {
	return CalendarSettings{
		UserID:             userID,
		Enabled:            true,
		SyncCompletedTasks: true,
		SyncWontDoTasks:    false,
	}
}

// GoogleTokens are the stored OAuth credentials for one user.
type GoogleTokens struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TaskForm is the input for creating or updating a task.
type TaskForm struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Icon             string     `json:"icon"`
	Status           Status     `json:"status"`
	DueDate          *time.Time `json:"dueDate"`
	ReminderTime     *time.Time `json:"reminderTime"`
	IsCalendarSynced bool       `json:"isCalendarSynced"`
}

// Session identifies the acting user. The zero value is an unauthenticated
// session, which is valid for task CRUD.
type Session struct {
	UserID string
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool { return s.UserID != "" }

// CalendarEntry describes one entry of the user's calendar list.
type CalendarEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

// Event is the payload written to the remote calendar for a task.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	// ReminderMinutes overrides the calendar's default reminders when set.
	ReminderMinutes *int64
	// Private holds back-references (task, board, status) for traceability.
	Private map[string]string
}
