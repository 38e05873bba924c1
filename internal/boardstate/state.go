// Package boardstate holds the client-side view of the active board. A State
// mirrors whatever the mutation service last returned; it is never used to
// decide anything about persistence or sync.
package boardstate

import (
	"taskboard/internal/service"
)

// Column is one status column of the board.
type Column struct {
	Status service.Status
	Tasks  []service.Task
}

// State is owned by its caller. The zero value holds no board.
type State struct {
	board          service.Board
	loaded         bool
	calendarAccess bool
	err            error
}

// Board returns the active board, if one is loaded.
func (s *State) Board() (service.Board, bool) {
	return s.board, s.loaded
}

// SetBoard replaces the active board and clears any error.
func (s *State) SetBoard(b service.Board) {
	b.Tasks = append([]service.Task(nil), b.Tasks...)
	s.board = b
	s.loaded = true
	s.err = nil
}

// ApplyTask replaces the task with the same id in place, or appends it when
// the board does not hold it yet. Tasks of other boards are ignored.
func (s *State) ApplyTask(t service.Task) {
	if !s.loaded || t.BoardID != s.board.ID {
		return
	}
	for i := range s.board.Tasks {
		if s.board.Tasks[i].ID == t.ID {
			s.board.Tasks[i] = t
			return
		}
	}
	s.board.Tasks = append(s.board.Tasks, t)
}

// RemoveTask drops a task from the active board.
func (s *State) RemoveTask(id string) {
	tasks := s.board.Tasks[:0]
	for _, t := range s.board.Tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	s.board.Tasks = tasks
}

// Columns groups the tasks by status in column order, keeping board order
// within a column. Every status gets a column, even an empty one.
func (s *State) Columns() []Column {
	cols := make([]Column, len(service.Statuses))
	index := make(map[service.Status]int, len(service.Statuses))
	for i, st := range service.Statuses {
		cols[i].Status = st
		index[st] = i
	}
	for _, t := range s.board.Tasks {
		i, ok := index[t.Status]
		if !ok {
			i = 0
		}
		cols[i].Tasks = append(cols[i].Tasks, t)
	}
	return cols
}

// SetCalendarAccess records whether the user has connected a calendar.
func (s *State) SetCalendarAccess(ok bool) { s.calendarAccess = ok }

// HasCalendarAccess reports the last recorded calendar access.
func (s *State) HasCalendarAccess() bool { return s.calendarAccess }

// SetError records the last mutation failure.
func (s *State) SetError(err error) { s.err = err }

// Err returns the last recorded failure.
func (s *State) Err() error { return s.err }
