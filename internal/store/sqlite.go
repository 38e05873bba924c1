// Package store implements service.Store on an embedded SQLite database.
//
// The database runs in WAL mode with a busy timeout so the HTTP server and
// CLI commands can share one file. Tasks reference their board with
// ON DELETE CASCADE, so deleting a board removes its tasks.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"taskboard/internal/service"
)

// timeLayout is how timestamps are stored in TEXT columns. Fixed width keeps
// lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the SQLite connection and implements service.Store.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and initializes the schema.
// The caller must call Close when done.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "foreign_keys(1)")
	conn, err := sql.Open("sqlite3", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}
	if err := db.InitSchemaContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchemaContext creates the tables if they don't exist. Safe to call repeatedly.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',  -- '' marks an orphan board
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		due_date TEXT,
		reminder_time TEXT,
		is_calendar_synced INTEGER NOT NULL DEFAULT 0,
		calendar_event_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS calendar_settings (
		user_id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 1,
		default_calendar_id TEXT NOT NULL DEFAULT '',
		sync_completed_tasks INTEGER NOT NULL DEFAULT 1,
		sync_wont_do_tasks INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS google_tokens (
		user_id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_boards_user ON boards(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id, created_at);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetBoard implements service.BoardStore. The board's tasks are included.
func (db *DB) GetBoard(ctx context.Context, id string) (service.Board, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at FROM boards WHERE id = ?`, id)
	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Board{}, service.NotFoundError("board", id)
	}
	if err != nil {
		return service.Board{}, fmt.Errorf("failed to get board: %w", err)
	}
	tasks, err := db.ListTasks(ctx, id)
	if err != nil {
		return service.Board{}, err
	}
	b.Tasks = tasks
	return b, nil
}

// ListBoards implements service.BoardStore. Tasks are not loaded.
func (db *DB) ListBoards(ctx context.Context, userID string) ([]service.Board, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at FROM boards
		 WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var result []service.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// CreateBoard implements service.BoardStore.
func (db *DB) CreateBoard(ctx context.Context, b service.Board) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO boards (id, name, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.UserID, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}
	return nil
}

// UpdateBoard implements service.BoardStore.
func (db *DB) UpdateBoard(ctx context.Context, b service.Board) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE boards SET name = ?, description = ?, user_id = ?, updated_at = ? WHERE id = ?`,
		b.Name, b.Description, b.UserID, formatTime(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	return expectRow(res, "board", b.ID)
}

// DeleteBoard implements service.BoardStore.
func (db *DB) DeleteBoard(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return expectRow(res, "board", id)
}

const taskColumns = `id, board_id, name, description, icon, status, due_date, reminder_time,
	is_calendar_synced, calendar_event_id, created_at, updated_at`

// GetTask implements service.TaskStore.
func (db *DB) GetTask(ctx context.Context, id string) (service.Task, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, service.NotFoundError("task", id)
	}
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks implements service.TaskStore, in insertion order.
func (db *DB) ListTasks(ctx context.Context, boardID string) ([]service.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE board_id = ? ORDER BY created_at, rowid`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var result []service.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// CreateTask implements service.TaskStore.
func (db *DB) CreateTask(ctx context.Context, t service.Task) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BoardID, t.Name, t.Description, t.Icon, string(t.Status),
		nullTime(t.DueDate), nullTime(t.ReminderTime), t.IsCalendarSynced, t.CalendarEventID,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTask implements service.TaskStore. The board and creation time are immutable.
func (db *DB) UpdateTask(ctx context.Context, t service.Task) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE tasks SET name = ?, description = ?, icon = ?, status = ?, due_date = ?,
		 reminder_time = ?, is_calendar_synced = ?, calendar_event_id = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.Icon, string(t.Status), nullTime(t.DueDate),
		nullTime(t.ReminderTime), t.IsCalendarSynced, t.CalendarEventID, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectRow(res, "task", t.ID)
}

// DeleteTask implements service.TaskStore.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectRow(res, "task", id)
}

// GetUser implements service.UserStore.
func (db *DB) GetUser(ctx context.Context, id string) (service.User, error) {
	return db.getUser(ctx, `SELECT id, email, name, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail implements service.UserStore.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (service.User, error) {
	return db.getUser(ctx, `SELECT id, email, name, created_at FROM users WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, query, key string) (service.User, error) {
	var u service.User
	var created string
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&u.ID, &u.Email, &u.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return service.User{}, service.NotFoundError("user", key)
	}
	if err != nil {
		return service.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// CreateUser implements service.UserStore.
func (db *DB) CreateUser(ctx context.Context, u service.User) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetCalendarSettings implements service.SettingsStore.
func (db *DB) GetCalendarSettings(ctx context.Context, userID string) (service.CalendarSettings, error) {
	s := service.CalendarSettings{UserID: userID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT enabled, default_calendar_id, sync_completed_tasks, sync_wont_do_tasks
		 FROM calendar_settings WHERE user_id = ?`, userID).
		Scan(&s.Enabled, &s.DefaultCalendarID, &s.SyncCompletedTasks, &s.SyncWontDoTasks)
	if errors.Is(err, sql.ErrNoRows) {
		return service.CalendarSettings{}, service.NotFoundError("calendar settings", userID)
	}
	if err != nil {
		return service.CalendarSettings{}, fmt.Errorf("failed to get calendar settings: %w", err)
	}
	return s, nil
}

// UpsertCalendarSettings implements service.SettingsStore.
func (db *DB) UpsertCalendarSettings(ctx context.Context, s service.CalendarSettings) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO calendar_settings (user_id, enabled, default_calendar_id, sync_completed_tasks, sync_wont_do_tasks)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   enabled = excluded.enabled,
		   default_calendar_id = excluded.default_calendar_id,
		   sync_completed_tasks = excluded.sync_completed_tasks,
		   sync_wont_do_tasks = excluded.sync_wont_do_tasks`,
		s.UserID, s.Enabled, s.DefaultCalendarID, s.SyncCompletedTasks, s.SyncWontDoTasks)
	if err != nil {
		return fmt.Errorf("failed to upsert calendar settings: %w", err)
	}
	return nil
}

// GetGoogleTokens implements service.TokenStore.
func (db *DB) GetGoogleTokens(ctx context.Context, userID string) (service.GoogleTokens, error) {
	t := service.GoogleTokens{UserID: userID}
	var expires string
	err := db.conn.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at FROM google_tokens WHERE user_id = ?`, userID).
		Scan(&t.AccessToken, &t.RefreshToken, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return service.GoogleTokens{}, service.NotFoundError("google tokens", userID)
	}
	if err != nil {
		return service.GoogleTokens{}, fmt.Errorf("failed to get google tokens: %w", err)
	}
	t.ExpiresAt = parseTime(expires)
	return t, nil
}

// UpsertGoogleTokens implements service.TokenStore.
func (db *DB) UpsertGoogleTokens(ctx context.Context, t service.GoogleTokens) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO google_tokens (user_id, access_token, refresh_token, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires_at = excluded.expires_at`,
		t.UserID, t.AccessToken, t.RefreshToken, formatTime(t.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to upsert google tokens: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (service.Board, error) {
	var b service.Board
	var created, updated string
	if err := s.Scan(&b.ID, &b.Name, &b.Description, &b.UserID, &created, &updated); err != nil {
		return service.Board{}, err
	}
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func scanTask(s scanner) (service.Task, error) {
	var t service.Task
	var status, created, updated string
	var due, reminder sql.NullString
	err := s.Scan(&t.ID, &t.BoardID, &t.Name, &t.Description, &t.Icon, &status, &due, &reminder,
		&t.IsCalendarSynced, &t.CalendarEventID, &created, &updated)
	if err != nil {
		return service.Task{}, err
	}
	t.Status = service.Status(status)
	t.DueDate = parseNullTime(due)
	t.ReminderTime = parseNullTime(reminder)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return t, nil
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return service.NotFoundError(kind, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return time.Time{}
		}
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

var _ service.Store = (*DB)(nil)
