// Package googlecalendar implements the service.Calendar interface using Google Calendar API.
package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"taskboard/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// PageSize is the number of calendars per list page.
	PageSize = 250

	// reminderMethod is the override method used for task reminders.
	reminderMethod = "popup"
)

// Scopes are the OAuth scopes the calendar client needs.
var Scopes = []string{calendar.CalendarScope, calendar.CalendarEventsScope}

// Client implements service.Calendar for one user's credentials.
type Client struct {
	svc *calendar.Service
}

// NewWithHTTPClient creates a client on top of an authenticated HTTP client.
// Extra options (e.g. option.WithEndpoint in tests) are passed through.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListCalendars returns the user's calendar list in API order.
func (c *Client) ListCalendars(ctx context.Context) ([]service.CalendarEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.CalendarEntry
	err := c.svc.CalendarList.List().MaxResults(PageSize).Pages(ctx, func(resp *calendar.CalendarList) error {
		for _, item := range resp.Items {
			result = append(result, service.CalendarEntry{
				ID:      item.Id,
				Summary: item.Summary,
				Primary: item.Primary,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// CreateEvent inserts an event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, ev service.Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created, err := c.svc.Events.Insert(calendarID, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	if created.Id == "" {
		return "", fmt.Errorf("calendar returned an event without id")
	}
	return created.Id, nil
}

// UpdateEvent replaces the event's content with ev.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, ev service.Event) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Events.Update(calendarID, eventID, toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// toEvent maps the task payload onto the API resource.
func toEvent(ev service.Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	if len(ev.Private) > 0 {
		out.ExtendedProperties = &calendar.EventExtendedProperties{Private: ev.Private}
	}
	if ev.ReminderMinutes != nil {
		out.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: reminderMethod, Minutes: *ev.ReminderMinutes, ForceSendFields: []string{"Minutes"}},
			},
			// UseDefault=false must be sent explicitly or the API keeps the default.
			ForceSendFields: []string{"UseDefault"},
		}
	} else {
		out.Reminders = &calendar.EventReminders{UseDefault: true}
	}
	return out
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (reconnect Google Calendar)")
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("not found")
		}
		return err
	}

	// oauth2 refresh failures surface as url errors wrapping the token response.
	if strings.Contains(err.Error(), "oauth2: ") {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	return err
}
