package service

import "context"

// Calendar is the remote calendar bound to one user's credentials.
// All Google Calendar API calls go through this interface.
// The mutation service never imports the Google SDK directly.
type Calendar interface {
	// ListCalendars returns the user's calendar list.
	ListCalendars(ctx context.Context) ([]CalendarEntry, error)

	// CreateEvent inserts an event and returns its id.
	CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error)

	// UpdateEvent rewrites an existing event.
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev Event) error

	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// BoardStore persists boards. GetBoard includes the board's tasks.
type BoardStore interface {
	GetBoard(ctx context.Context, id string) (Board, error)
	ListBoards(ctx context.Context, userID string) ([]Board, error)
	CreateBoard(ctx context.Context, b Board) error
	UpdateBoard(ctx context.Context, b Board) error
	DeleteBoard(ctx context.Context, id string) error
}

// TaskStore persists tasks.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, boardID string) ([]Task, error)
	CreateTask(ctx context.Context, t Task) error
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, id string) error
}

// UserStore persists users.
type UserStore interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, u User) error
}

// SettingsStore persists per-user calendar settings.
type SettingsStore interface {
	GetCalendarSettings(ctx context.Context, userID string) (CalendarSettings, error)
	UpsertCalendarSettings(ctx context.Context, s CalendarSettings) error
}

// TokenStore persists per-user Google credentials.
type TokenStore interface {
	GetGoogleTokens(ctx context.Context, userID string) (GoogleTokens, error)
	UpsertGoogleTokens(ctx context.Context, t GoogleTokens) error
}

// Store is the full record store. Lookups of missing ids return ErrNotFound;
// upserts never do.
type Store interface {
	BoardStore
	TaskStore
	UserStore
	SettingsStore
	TokenStore
}
