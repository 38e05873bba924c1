// Package calsync reconciles a task's calendar-sync intent with its remote
// calendar event.
//
// Reconcile never fails. A failed remote call degrades the task instead:
// a failed create turns the intent off, a failed update falls back to a
// fresh create, and a delete always clears the local event reference.
package calsync

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// DefaultTimeout bounds each remote calendar call.
const DefaultTimeout = 5 * time.Second

// EventDuration is the length of the event written for a task.
const EventDuration = 30 * time.Minute

// Action is the remote operation a task needs.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Plan decides the remote operation from the intent, event reference and due date.
func Plan(t service.Task) Action {
	if !t.IsCalendarSynced {
		if t.CalendarEventID != "" {
			return ActionDelete
		}
		return ActionNone
	}
	if t.DueDate == nil {
		return ActionNone
	}
	if t.CalendarEventID == "" {
		return ActionCreate
	}
	return ActionUpdate
}

// CalendarProvider returns a calendar client bound to a user's credentials.
// ok is false when the user has not connected a calendar.
type CalendarProvider interface {
	Client(ctx context.Context, userID string) (cal service.Calendar, ok bool, err error)
}

// Engine applies Plan against the remote calendar.
type Engine struct {
	calendars CalendarProvider
	settings  service.SettingsStore
	timeout   time.Duration
}

// New creates an Engine. A non-positive timeout uses DefaultTimeout.
func New(calendars CalendarProvider, settings service.SettingsStore, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{calendars: calendars, settings: settings, timeout: timeout}
}

// Reconcile brings the remote event in line with the task and returns the
// task with IsCalendarSynced and CalendarEventID updated. The caller persists
// the result. userID selects the credentials; "" means nobody is signed in,
// which fails every remote call.
func (e *Engine) Reconcile(ctx context.Context, userID string, task service.Task) service.Task {
	action := Plan(task)
	if action == ActionNone {
		return task
	}

	logger := log.WithFields(log.Fields{
		"task":  task.ID,
		"board": task.BoardID,
		"user":  userID,
		"op":    action.String(),
	})

	cal, calendarID, err := e.connect(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("calendar sync skipped")
		return degrade(task, action)
	}

	switch action {
	case ActionCreate:
		id, err := e.create(ctx, cal, calendarID, task)
		if err != nil {
			logger.WithError(err).Warn("calendar event create failed")
			task.IsCalendarSynced = false
			return task
		}
		task.CalendarEventID = id

	case ActionUpdate:
		err := e.update(ctx, cal, calendarID, task)
		if err == nil {
			return task
		}
		logger.WithError(err).Warn("calendar event update failed, recreating")
		id, err := e.create(ctx, cal, calendarID, task)
		if err != nil {
			logger.WithError(err).Warn("calendar event recreate failed")
			task.CalendarEventID = ""
			task.IsCalendarSynced = false
			return task
		}
		task.CalendarEventID = id

	case ActionDelete:
		if err := e.remove(ctx, cal, calendarID, task.CalendarEventID); err != nil {
			logger.WithError(err).Warn("calendar event delete failed")
		}
		task.CalendarEventID = ""
	}

	logger.WithField("event", task.CalendarEventID).Debug("calendar sync done")
	return task
}

// connect resolves the user's calendar client and target calendar id.
func (e *Engine) connect(ctx context.Context, userID string) (service.Calendar, string, error) {
	if userID == "" {
		return nil, "", fmt.Errorf("%w: no signed-in user", service.ErrRemoteSync)
	}
	cal, ok, err := e.calendars.Client(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", service.ErrRemoteSync, err)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: calendar not connected", service.ErrRemoteSync)
	}

	calendarID := service.PrimaryCalendarID
	if e.settings != nil {
		if s, err := e.settings.GetCalendarSettings(ctx, userID); err == nil {
			calendarID = s.CalendarID()
		}
	}
	return cal, calendarID, nil
}

func (e *Engine) create(ctx context.Context, cal service.Calendar, calendarID string, task service.Task) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	id, err := cal.CreateEvent(ctx, calendarID, EventFor(task))
	if err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrRemoteSync, err)
	}
	return id, nil
}

func (e *Engine) update(ctx context.Context, cal service.Calendar, calendarID string, task service.Task) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := cal.UpdateEvent(ctx, calendarID, task.CalendarEventID, EventFor(task)); err != nil {
		return fmt.Errorf("%w: %v", service.ErrRemoteSync, err)
	}
	return nil
}

func (e *Engine) remove(ctx context.Context, cal service.Calendar, calendarID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := cal.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return fmt.Errorf("%w: %v", service.ErrRemoteSync, err)
	}
	return nil
}

// degrade applies the failure outcome of action without calling out.
func degrade(task service.Task, action Action) service.Task {
	switch action {
	case ActionCreate:
		task.IsCalendarSynced = false
	case ActionUpdate:
		task.CalendarEventID = ""
		task.IsCalendarSynced = false
	case ActionDelete:
		task.CalendarEventID = ""
	}
	return task
}

// EventFor builds the calendar payload for a task with a due date.
func EventFor(task service.Task) service.Event {
	ev := service.Event{
		Title:       task.Name,
		Description: task.Description,
		Private: map[string]string{
			"taskId":  task.ID,
			"boardId": task.BoardID,
			"status":  string(task.Status),
		},
	}
	if task.DueDate != nil {
		ev.Start = *task.DueDate
		ev.End = task.DueDate.Add(EventDuration)
		if task.ReminderTime != nil {
			// A reminder after the due date would be rejected remotely.
			if lead := task.DueDate.Sub(*task.ReminderTime); lead >= 0 {
				minutes := int64(lead / time.Minute)
				ev.ReminderMinutes = &minutes
			}
		}
	}
	return ev
}
