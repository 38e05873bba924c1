package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// starterTasks seed every new board, one per column.
var starterTasks = []struct {
	name, description, icon string
	status                  service.Status
}{
	{"Task To Do", "This is a task that needs to be done.", "📋", service.StatusToDo},
	{"Task in Progress", "This is a task currently in progress.", "🔄", service.StatusInProgress},
	{"Task Completed", "This is a completed task.", "✅", service.StatusCompleted},
	{"Task Won't Do", "This task will not be done.", "❌", service.StatusWontDo},
}

// CreateBoard creates a board owned by the session user (or unowned without
// one), seeded with one starter task per status.
func (s *Service) CreateBoard(ctx context.Context, sess service.Session, name, description string) (service.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultBoardName
	}
	now := s.now()
	b := service.Board{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		UserID:      sess.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateBoard(ctx, b); err != nil {
		return service.Board{}, err
	}
	for i, st := range starterTasks {
		// Distinct timestamps keep the starter tasks in column order.
		ts := now.Add(time.Duration(i) * time.Millisecond)
		t := service.Task{
			ID:          s.newID(),
			Name:        st.name,
			Description: st.description,
			Icon:        st.icon,
			Status:      st.status,
			BoardID:     b.ID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := s.store.CreateTask(ctx, t); err != nil {
			return service.Board{}, err
		}
	}
	log.WithFields(log.Fields{"board": b.ID, "user": sess.UserID}).Info("created board")
	return s.store.GetBoard(ctx, b.ID)
}

// GetBoard returns a board with its tasks.
func (s *Service) GetBoard(ctx context.Context, boardID string) (service.Board, error) {
	return s.store.GetBoard(ctx, boardID)
}

// ListBoards returns the boards owned by the session user.
func (s *Service) ListBoards(ctx context.Context, sess service.Session) ([]service.Board, error) {
	return s.store.ListBoards(ctx, sess.UserID)
}

// UpdateBoard renames a board. An empty name keeps the current one.
func (s *Service) UpdateBoard(ctx context.Context, sess service.Session, boardID, name, description string) (service.Board, error) {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return service.Board{}, err
	}
	if err := checkOwner(b, sess); err != nil {
		return service.Board{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		b.Name = name
	}
	b.Description = description
	b.UpdatedAt = s.now()
	if err := s.store.UpdateBoard(ctx, b); err != nil {
		return service.Board{}, err
	}
	return s.store.GetBoard(ctx, boardID)
}

// DeleteBoard removes a board and its tasks. Calendar events of synced tasks
// are deleted first, best-effort.
func (s *Service) DeleteBoard(ctx context.Context, sess service.Session, boardID string) error {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}
	if err := checkOwner(b, sess); err != nil {
		return err
	}
	for _, t := range b.Tasks {
		if t.CalendarEventID == "" {
			continue
		}
		t.IsCalendarSynced = false
		s.sync.Reconcile(ctx, b.UserID, t)
	}
	return s.store.DeleteBoard(ctx, boardID)
}

// CalendarSettings returns the user's settings, defaults when none are
// stored, together with their calendars. A calendar that cannot be listed
// yields an empty list.
func (s *Service) CalendarSettings(ctx context.Context, sess service.Session) (service.CalendarSettings, []service.CalendarEntry, error) {
	if !sess.Authenticated() {
		return service.CalendarSettings{}, nil, fmt.Errorf("calendar settings: %w", service.ErrUnauthorized)
	}
	settings, err := s.store.GetCalendarSettings(ctx, sess.UserID)
	if errors.Is(err, service.ErrNotFound) {
		settings = service.DefaultCalendarSettings(sess.UserID)
	} else if err != nil {
		return service.CalendarSettings{}, nil, err
	}

	calendars := []service.CalendarEntry{}
	if s.calendars == nil {
		return settings, calendars, nil
	}
	cal, ok, err := s.calendars.Client(ctx, sess.UserID)
	if err != nil || !ok {
		if err != nil {
			log.WithField("user", sess.UserID).WithError(err).Warn("calendar client unavailable")
		}
		return settings, calendars, nil
	}
	list, err := cal.ListCalendars(ctx)
	if err != nil {
		log.WithField("user", sess.UserID).WithError(err).Warn("failed to list calendars")
		return settings, calendars, nil
	}
	return settings, append(calendars, list...), nil
}

// UpdateCalendarSettings stores the user's settings.
func (s *Service) UpdateCalendarSettings(ctx context.Context, sess service.Session, settings service.CalendarSettings) (service.CalendarSettings, error) {
	if !sess.Authenticated() {
		return service.CalendarSettings{}, fmt.Errorf("calendar settings: %w", service.ErrUnauthorized)
	}
	settings.UserID = sess.UserID
	if err := s.store.UpsertCalendarSettings(ctx, settings); err != nil {
		return service.CalendarSettings{}, err
	}
	return settings, nil
}

// EnsureCalendarSettings creates default settings for a user that has none.
func (s *Service) EnsureCalendarSettings(ctx context.Context, userID string) error {
	_, err := s.store.GetCalendarSettings(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, service.ErrNotFound) {
		return err
	}
	return s.store.UpsertCalendarSettings(ctx, service.DefaultCalendarSettings(userID))
}

// checkOwner rejects changes to a board owned by someone other than the
// session user. Unowned boards are open to everyone.
func checkOwner(b service.Board, sess service.Session) error {
	if b.UserID == "" || b.UserID == sess.UserID {
		return nil
	}
	if !sess.Authenticated() {
		return fmt.Errorf("board %s: %w", b.ID, service.ErrUnauthorized)
	}
	return fmt.Errorf("board %s: %w", b.ID, service.ErrForbidden)
}
