// Package board implements task and board mutations. Each task mutation is
// persisted first and then reconciled with the calendar; a calendar failure
// only degrades the task's sync fields and never fails the mutation.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/calsync"
	"taskboard/internal/service"
)

// DefaultBoardName is used when a board is created without a name.
const DefaultBoardName = "My Task Board"

// Syncer reconciles a task with the remote calendar.
type Syncer interface {
	Reconcile(ctx context.Context, userID string, task service.Task) service.Task
}

// Service orchestrates validate, persist, reconcile and report.
type Service struct {
	store     service.Store
	sync      Syncer
	calendars calsync.CalendarProvider
	now       func() time.Time
	newID     func() string
}

// New creates a Service. calendars is only used to list a user's calendars.
func New(store service.Store, sync Syncer, calendars calsync.CalendarProvider) *Service {
	return &Service{
		store:     store,
		sync:      sync,
		calendars: calendars,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// CreateTask adds a task to the board and returns the whole board.
func (s *Service) CreateTask(ctx context.Context, sess service.Session, boardID string, form service.TaskForm) (service.Board, error) {
	if err := validate(form); err != nil {
		return service.Board{}, err
	}
	if _, err := s.store.GetBoard(ctx, boardID); err != nil {
		return service.Board{}, err
	}

	now := s.now()
	task := service.Task{
		ID:               s.newID(),
		Name:             strings.TrimSpace(form.Name),
		Description:      form.Description,
		Icon:             form.Icon,
		Status:           form.Status,
		BoardID:          boardID,
		DueDate:          form.DueDate,
		ReminderTime:     form.ReminderTime,
		IsCalendarSynced: form.IsCalendarSynced,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if task.Icon == "" {
		task.Icon = service.DefaultIcon
	}
	if task.Status == "" {
		task.Status = service.StatusToDo
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return service.Board{}, err
	}

	if task.IsCalendarSynced {
		if _, err := s.reconcile(ctx, sess, task); err != nil {
			return service.Board{}, err
		}
	}
	return s.store.GetBoard(ctx, boardID)
}

// UpdateTask applies the form to a persisted task. A synced task is
// re-synced on every edit so the remote event reflects the new fields.
func (s *Service) UpdateTask(ctx context.Context, sess service.Session, taskID string, form service.TaskForm) (service.Task, error) {
	if taskID == service.NewTaskID {
		return service.Task{}, fmt.Errorf("draft task must be created, not updated: %w", service.ErrInvalidOperation)
	}
	existing, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return service.Task{}, err
	}
	if err := validate(form); err != nil {
		return service.Task{}, err
	}

	task := existing
	task.Name = strings.TrimSpace(form.Name)
	task.Description = form.Description
	if form.Icon != "" {
		task.Icon = form.Icon
	}
	if form.Status != "" {
		task.Status = form.Status
	}
	task.DueDate = form.DueDate
	task.ReminderTime = form.ReminderTime
	task.IsCalendarSynced = form.IsCalendarSynced
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return service.Task{}, err
	}

	if task.IsCalendarSynced == existing.IsCalendarSynced && !task.IsCalendarSynced {
		return task, nil
	}
	return s.reconcile(ctx, sess, task)
}

// DeleteTask removes a task, deleting its calendar event first when it has one.
// The draft id is accepted as a no-op.
func (s *Service) DeleteTask(ctx context.Context, sess service.Session, taskID string) error {
	if taskID == service.NewTaskID {
		return nil
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	off := task
	off.IsCalendarSynced = false
	if calsync.Plan(off) == calsync.ActionDelete {
		// Best-effort: the local delete proceeds whatever the outcome.
		if userID, ok := s.syncUser(ctx, sess, off); ok {
			s.sync.Reconcile(ctx, userID, off)
		}
	}
	return s.store.DeleteTask(ctx, taskID)
}

// MoveTaskStatus changes a task's column. Moving to the current status
// writes nothing.
func (s *Service) MoveTaskStatus(ctx context.Context, sess service.Session, taskID string, status service.Status) (service.Task, error) {
	if !status.Valid() {
		return service.Task{}, &service.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if taskID == service.NewTaskID {
		return service.Task{}, fmt.Errorf("draft task cannot be moved: %w", service.ErrInvalidOperation)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return service.Task{}, err
	}
	if task.Status == status {
		return task, nil
	}

	task.Status = status
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return service.Task{}, err
	}
	if !task.IsCalendarSynced {
		return task, nil
	}
	return s.reconcile(ctx, sess, task)
}

// ToggleCalendarSync sets a task's sync intent and returns the resulting
// flag, which is false when the calendar could not be reached. It needs a
// signed-in user and claims an unowned board for that user.
func (s *Service) ToggleCalendarSync(ctx context.Context, sess service.Session, taskID string, sync bool) (bool, error) {
	if !sess.Authenticated() {
		return false, fmt.Errorf("calendar sync requires a signed-in user: %w", service.ErrUnauthorized)
	}
	if taskID == service.NewTaskID {
		return false, fmt.Errorf("draft task cannot be synced: %w", service.ErrInvalidOperation)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}
	if _, err := s.ClaimOrphanBoard(ctx, task.BoardID, sess.UserID); err != nil {
		return false, err
	}

	if task.IsCalendarSynced != sync {
		task.IsCalendarSynced = sync
		task.UpdatedAt = s.now()
		if err := s.store.UpdateTask(ctx, task); err != nil {
			return false, err
		}
	}

	synced, err := s.reconcile(ctx, sess, task)
	if err != nil {
		return false, err
	}
	return synced.IsCalendarSynced, nil
}

// ClaimOrphanBoard assigns an unowned board to userID. Claiming a board the
// user already owns is a no-op; another owner is rejected.
func (s *Service) ClaimOrphanBoard(ctx context.Context, boardID, userID string) (service.Board, error) {
	if userID == "" {
		return service.Board{}, fmt.Errorf("claiming a board requires a user: %w", service.ErrUnauthorized)
	}
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return service.Board{}, err
	}
	switch b.UserID {
	case userID:
		return b, nil
	case "":
		b.UserID = userID
		b.UpdatedAt = s.now()
		if err := s.store.UpdateBoard(ctx, b); err != nil {
			return service.Board{}, err
		}
		log.WithFields(log.Fields{"board": boardID, "user": userID}).Info("claimed orphan board")
		return b, nil
	default:
		return service.Board{}, fmt.Errorf("board %s: %w", boardID, service.ErrForbidden)
	}
}

// reconcile syncs a persisted task and persists the outcome when it changed.
// Without a resolvable calendar owner the task is returned untouched so its
// sync fields keep pointing at any existing event.
func (s *Service) reconcile(ctx context.Context, sess service.Session, task service.Task) (service.Task, error) {
	detach := task.IsCalendarSynced && task.DueDate == nil && task.CalendarEventID != ""
	if !detach && calsync.Plan(task) == calsync.ActionNone {
		return task, nil
	}
	userID, ok := s.syncUser(ctx, sess, task)
	if !ok {
		return task, nil
	}
	if detach {
		// The due date was removed: drop the event but keep the intent.
		off := task
		off.IsCalendarSynced = false
		detached := s.sync.Reconcile(ctx, userID, off)
		detached.IsCalendarSynced = true
		return s.persistOutcome(ctx, task, detached)
	}
	return s.persistOutcome(ctx, task, s.sync.Reconcile(ctx, userID, task))
}

// persistOutcome writes the reconciled sync fields if they differ from before.
func (s *Service) persistOutcome(ctx context.Context, before, after service.Task) (service.Task, error) {
	if before.IsCalendarSynced == after.IsCalendarSynced && before.CalendarEventID == after.CalendarEventID {
		return after, nil
	}
	after.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, after); err != nil {
		return service.Task{}, err
	}
	return after, nil
}

// syncUser picks whose calendar a CRUD-triggered sync uses: the board owner
// when there is one, whoever edits it otherwise. An orphan board is claimed
// for the signed-in user. ok is false when nobody can be resolved, and the
// caller then skips the remote call entirely.
func (s *Service) syncUser(ctx context.Context, sess service.Session, task service.Task) (string, bool) {
	fields := log.Fields{"board": task.BoardID, "user": sess.UserID, "task": task.ID}
	b, err := s.store.GetBoard(ctx, task.BoardID)
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("could not resolve board owner, skipping calendar sync")
		return "", false
	}
	if b.UserID != "" {
		if b.UserID != sess.UserID {
			log.WithFields(fields).WithField("owner", b.UserID).Debug("syncing with the board owner's calendar")
		}
		return b.UserID, true
	}
	if !sess.Authenticated() {
		log.WithFields(fields).Debug("unowned board and no session, skipping calendar sync")
		return "", false
	}
	if _, err := s.ClaimOrphanBoard(ctx, task.BoardID, sess.UserID); err != nil {
		log.WithFields(fields).WithError(err).Warn("could not claim board, skipping calendar sync")
		return "", false
	}
	return sess.UserID, true
}

// validate checks a task form. Nothing is written when it fails.
func validate(form service.TaskForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return &service.ValidationError{Field: "name", Message: "name is required"}
	}
	if form.Status != "" && !form.Status.Valid() {
		return &service.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", form.Status)}
	}
	if form.DueDate != nil && form.ReminderTime != nil && form.ReminderTime.After(*form.DueDate) {
		return &service.ValidationError{Field: "reminderTime", Message: "reminder must not be after the due date"}
	}
	return nil
}
