// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"sync"

	"taskboard/internal/service"
)

// FakeStore is an in-memory implementation of service.Store for testing.
// Every successful write bumps a per-operation counter so tests can assert
// how many writes a mutation issued.
type FakeStore struct {
	mu       sync.RWMutex
	boards   map[string]service.Board
	tasks    map[string]service.Task
	users    map[string]service.User
	settings map[string]service.CalendarSettings
	tokens   map[string]service.GoogleTokens
	writes   map[string]int

	// Error injection for testing
	GetBoardErr       error
	ListBoardsErr     error
	CreateBoardErr    error
	UpdateBoardErr    error
	DeleteBoardErr    error
	GetTaskErr        error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error
	GetSettingsErr    error
	UpsertSettingsErr error
	GetTokensErr      error
	UpsertTokensErr   error
	CreateUserErr     error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		boards:   make(map[string]service.Board),
		tasks:    make(map[string]service.Task),
		users:    make(map[string]service.User),
		settings: make(map[string]service.CalendarSettings),
		tokens:   make(map[string]service.GoogleTokens),
		writes:   make(map[string]int),
	}
}

// AddBoard seeds a board without counting a write.
func (f *FakeStore) AddBoard(b service.Board) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.Tasks = nil
	f.boards[b.ID] = b
}

// AddTask seeds a task without counting a write.
func (f *FakeStore) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
}

// SetSettings seeds calendar settings without counting a write.
func (f *FakeStore) SetSettings(s service.CalendarSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[s.UserID] = s
}

// SetTokens seeds stored credentials without counting a write.
func (f *FakeStore) SetTokens(t service.GoogleTokens) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.UserID] = t
}

// Writes returns the number of successful calls to the named operation,
// e.g. "UpdateTask".
func (f *FakeStore) Writes(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.writes[op]
}

// TotalWrites returns the number of successful writes of any kind.
func (f *FakeStore) TotalWrites() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.writes {
		n += c
	}
	return n
}

// ResetWrites zeroes the write counters.
func (f *FakeStore) ResetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = make(map[string]int)
}

// Task returns the stored task, bypassing error injection.
func (f *FakeStore) Task(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Board returns the stored board without tasks, bypassing error injection.
func (f *FakeStore) Board(id string) (service.Board, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.boards[id]
	return b, ok
}

// GetBoard implements service.BoardStore.
func (f *FakeStore) GetBoard(ctx context.Context, id string) (service.Board, error) {
	if f.GetBoardErr != nil {
		return service.Board{}, f.GetBoardErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.boards[id]
	if !ok {
		return service.Board{}, service.NotFoundError("board", id)
	}
	b.Tasks = f.tasksOf(id)
	return b, nil
}

// ListBoards implements service.BoardStore.
func (f *FakeStore) ListBoards(ctx context.Context, userID string) ([]service.Board, error) {
	if f.ListBoardsErr != nil {
		return nil, f.ListBoardsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var result []service.Board
	for _, b := range f.boards {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CreateBoard implements service.BoardStore.
func (f *FakeStore) CreateBoard(ctx context.Context, b service.Board) error {
	if f.CreateBoardErr != nil {
		return f.CreateBoardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b.Tasks = nil
	f.boards[b.ID] = b
	f.writes["CreateBoard"]++
	return nil
}

// UpdateBoard implements service.BoardStore.
func (f *FakeStore) UpdateBoard(ctx context.Context, b service.Board) error {
	if f.UpdateBoardErr != nil {
		return f.UpdateBoardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.boards[b.ID]; !ok {
		return service.NotFoundError("board", b.ID)
	}
	b.Tasks = nil
	f.boards[b.ID] = b
	f.writes["UpdateBoard"]++
	return nil
}

// DeleteBoard implements service.BoardStore. Tasks of the board go with it.
func (f *FakeStore) DeleteBoard(ctx context.Context, id string) error {
	if f.DeleteBoardErr != nil {
		return f.DeleteBoardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.boards[id]; !ok {
		return service.NotFoundError("board", id)
	}
	delete(f.boards, id)
	for tid, t := range f.tasks {
		if t.BoardID == id {
			delete(f.tasks, tid)
		}
	}
	f.writes["DeleteBoard"]++
	return nil
}

// GetTask implements service.TaskStore.
func (f *FakeStore) GetTask(ctx context.Context, id string) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	if !ok {
		return service.Task{}, service.NotFoundError("task", id)
	}
	return t, nil
}

// ListTasks implements service.TaskStore.
func (f *FakeStore) ListTasks(ctx context.Context, boardID string) ([]service.Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tasksOf(boardID), nil
}

// CreateTask implements service.TaskStore.
func (f *FakeStore) CreateTask(ctx context.Context, t service.Task) error {
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.boards[t.BoardID]; !ok {
		return service.NotFoundError("board", t.BoardID)
	}
	f.tasks[t.ID] = t
	f.writes["CreateTask"]++
	return nil
}

// UpdateTask implements service.TaskStore.
func (f *FakeStore) UpdateTask(ctx context.Context, t service.Task) error {
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return service.NotFoundError("task", t.ID)
	}
	f.tasks[t.ID] = t
	f.writes["UpdateTask"]++
	return nil
}

// DeleteTask implements service.TaskStore.
func (f *FakeStore) DeleteTask(ctx context.Context, id string) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return service.NotFoundError("task", id)
	}
	delete(f.tasks, id)
	f.writes["DeleteTask"]++
	return nil
}

// GetUser implements service.UserStore.
func (f *FakeStore) GetUser(ctx context.Context, id string) (service.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return service.User{}, service.NotFoundError("user", id)
	}
	return u, nil
}

// GetUserByEmail implements service.UserStore.
func (f *FakeStore) GetUserByEmail(ctx context.Context, email string) (service.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return service.User{}, service.NotFoundError("user", email)
}

// CreateUser implements service.UserStore.
func (f *FakeStore) CreateUser(ctx context.Context, u service.User) error {
	if f.CreateUserErr != nil {
		return f.CreateUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	f.writes["CreateUser"]++
	return nil
}

// GetCalendarSettings implements service.SettingsStore.
func (f *FakeStore) GetCalendarSettings(ctx context.Context, userID string) (service.CalendarSettings, error) {
	if f.GetSettingsErr != nil {
		return service.CalendarSettings{}, f.GetSettingsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.settings[userID]
	if !ok {
		return service.CalendarSettings{}, service.NotFoundError("calendar settings", userID)
	}
	return s, nil
}

// UpsertCalendarSettings implements service.SettingsStore.
func (f *FakeStore) UpsertCalendarSettings(ctx context.Context, s service.CalendarSettings) error {
	if f.UpsertSettingsErr != nil {
		return f.UpsertSettingsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[s.UserID] = s
	f.writes["UpsertCalendarSettings"]++
	return nil
}

// GetGoogleTokens implements service.TokenStore.
func (f *FakeStore) GetGoogleTokens(ctx context.Context, userID string) (service.GoogleTokens, error) {
	if f.GetTokensErr != nil {
		return service.GoogleTokens{}, f.GetTokensErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tokens[userID]
	if !ok {
		return service.GoogleTokens{}, service.NotFoundError("google tokens", userID)
	}
	return t, nil
}

// UpsertGoogleTokens implements service.TokenStore.
func (f *FakeStore) UpsertGoogleTokens(ctx context.Context, t service.GoogleTokens) error {
	if f.UpsertTokensErr != nil {
		return f.UpsertTokensErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.UserID] = t
	f.writes["UpsertGoogleTokens"]++
	return nil
}

// tasksOf returns the board's tasks ordered by creation time. Caller holds mu.
func (f *FakeStore) tasksOf(boardID string) []service.Task {
	var result []service.Task
	for _, t := range f.tasks {
		if t.BoardID == boardID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

var _ service.Store = (*FakeStore)(nil)
