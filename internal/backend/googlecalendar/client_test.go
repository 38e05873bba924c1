package googlecalendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"taskboard/internal/service"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"boom"}}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users/me/calendarList"):
		_, _ = io.WriteString(w, `{"items":[{"id":"primary-id","summary":"Me","primary":true},{"id":"work","summary":"Work"}]}`)
	case r.Method == http.MethodPost:
		_, _ = io.WriteString(w, `{"id":"evt-1"}`)
	case r.Method == http.MethodPut:
		_, _ = io.WriteString(w, `{"id":"evt-1"}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	return c
}

func testEvent(reminder *int64) service.Event {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return service.Event{
		Title:           "Pay rent",
		Description:     "",
		Start:           start,
		End:             start.Add(30 * time.Minute),
		ReminderMinutes: reminder,
		Private:         map[string]string{"taskId": "t1", "boardId": "b1", "status": "To Do"},
	}
}

func TestCreateEvent(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	minutes := int64(15)
	id, err := c.CreateEvent(context.Background(), "primary", testEvent(&minutes))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id != "evt-1" {
		t.Errorf("expected id %q, got %q", "evt-1", id)
	}

	req := api.last()
	if req.Method != http.MethodPost || req.Path != "/calendars/primary/events" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}

	var got calendar.Event
	if err := json.Unmarshal(req.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Summary != "Pay rent" {
		t.Errorf("expected summary %q, got %q", "Pay rent", got.Summary)
	}
	if got.Start.DateTime != "2025-01-01T09:00:00Z" || got.End.DateTime != "2025-01-01T09:30:00Z" {
		t.Errorf("unexpected times %q..%q", got.Start.DateTime, got.End.DateTime)
	}
	if got.Reminders == nil || got.Reminders.UseDefault || len(got.Reminders.Overrides) != 1 {
		t.Fatalf("expected a single reminder override, got %+v", got.Reminders)
	}
	if got.Reminders.Overrides[0].Minutes != 15 || got.Reminders.Overrides[0].Method != "popup" {
		t.Errorf("unexpected override %+v", got.Reminders.Overrides[0])
	}
	if got.ExtendedProperties == nil || got.ExtendedProperties.Private["taskId"] != "t1" {
		t.Errorf("expected private taskId back-reference, got %+v", got.ExtendedProperties)
	}
}

func TestCreateEvent_DefaultReminders(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	if _, err := c.CreateEvent(context.Background(), "primary", testEvent(nil)); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	var got calendar.Event
	if err := json.Unmarshal(api.last().Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Reminders == nil || !got.Reminders.UseDefault {
		t.Errorf("expected default reminders, got %+v", got.Reminders)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)
	ctx := context.Background()

	if err := c.UpdateEvent(ctx, "work", "evt-1", testEvent(nil)); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if req := api.last(); req.Method != http.MethodPut || req.Path != "/calendars/work/events/evt-1" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}

	if err := c.DeleteEvent(ctx, "work", "evt-1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if req := api.last(); req.Method != http.MethodDelete || req.Path != "/calendars/work/events/evt-1" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
}

func TestListCalendars(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	cals, err := c.ListCalendars(context.Background())
	if err != nil {
		t.Fatalf("ListCalendars: %v", err)
	}
	if len(cals) != 2 {
		t.Fatalf("expected 2 calendars, got %d", len(cals))
	}
	if !cals[0].Primary || cals[1].ID != "work" {
		t.Errorf("unexpected calendars %+v", cals)
	}
}

func TestWrapError_NotFound(t *testing.T) {
	api := &fakeAPI{status: http.StatusNotFound}
	c := newTestClient(t, api)

	err := c.DeleteEvent(context.Background(), "primary", "missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "not found" {
		t.Errorf("expected %q, got %q", "not found", err.Error())
	}
}

func TestWrapError_Auth(t *testing.T) {
	api := &fakeAPI{status: http.StatusUnauthorized}
	c := newTestClient(t, api)

	_, err := c.CreateEvent(context.Background(), "primary", testEvent(nil))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "token expired or revoked") {
		t.Errorf("expected auth error, got %q", err.Error())
	}
}
