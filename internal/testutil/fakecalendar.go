package testutil

import (
	"context"
	"fmt"
	"sync"

	"taskboard/internal/service"
)

// CalendarCall records one remote calendar call.
type CalendarCall struct {
	Op         string // "create", "update" or "delete"
	CalendarID string
	EventID    string
	Event      service.Event
}

// FakeCalendar is an in-memory implementation of service.Calendar for testing.
type FakeCalendar struct {
	mu        sync.Mutex
	calls     []CalendarCall
	events    map[string]service.Event
	nextID    int
	Calendars []service.CalendarEntry

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewFakeCalendar creates a FakeCalendar with a single primary calendar.
func NewFakeCalendar() *FakeCalendar {
	return &FakeCalendar{
		events: make(map[string]service.Event),
		Calendars: []service.CalendarEntry{
			{ID: "me@example.com", Summary: "Me", Primary: true},
		},
	}
}

// Calls returns a copy of the recorded calls.
func (f *FakeCalendar) Calls() []CalendarCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CalendarCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many calls of the given op were made, failed ones included.
func (f *FakeCalendar) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Event returns the live event with the given id.
func (f *FakeCalendar) Event(id string) (service.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	return ev, ok
}

// Live returns the number of events that exist remotely.
func (f *FakeCalendar) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// ListCalendars implements service.Calendar.
func (f *FakeCalendar) ListCalendars(ctx context.Context) ([]service.CalendarEntry, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.CalendarEntry, len(f.Calendars))
	copy(out, f.Calendars)
	return out, nil
}

// CreateEvent implements service.Calendar. Ids are evt-1, evt-2, ...
func (f *FakeCalendar) CreateEvent(ctx context.Context, calendarID string, ev service.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, CalendarCall{Op: "create", CalendarID: calendarID, Event: ev})
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.nextID++
	id := fmt.Sprintf("evt-%d", f.nextID)
	f.events[id] = ev
	return id, nil
}

// UpdateEvent implements service.Calendar.
func (f *FakeCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, ev service.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, CalendarCall{Op: "update", CalendarID: calendarID, EventID: eventID, Event: ev})
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("not found")
	}
	f.events[eventID] = ev
	return nil
}

// DeleteEvent implements service.Calendar.
func (f *FakeCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, CalendarCall{Op: "delete", CalendarID: calendarID, EventID: eventID})
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("not found")
	}
	delete(f.events, eventID)
	return nil
}

// CalendarProvider hands out a fixed calendar for any user that appears in
// Users, mirroring a token manager with stored credentials.
type CalendarProvider struct {
	Calendar *FakeCalendar
	Users    map[string]bool
	Err      error
}

// NewCalendarProvider creates a provider where the given users are connected.
func NewCalendarProvider(cal *FakeCalendar, users ...string) *CalendarProvider {
	p := &CalendarProvider{Calendar: cal, Users: make(map[string]bool)}
	for _, u := range users {
		p.Users[u] = true
	}
	return p
}

// Client returns the fake calendar for connected users and (nil, false) otherwise.
func (p *CalendarProvider) Client(ctx context.Context, userID string) (service.Calendar, bool, error) {
	if p.Err != nil {
		return nil, false, p.Err
	}
	if userID == "" || !p.Users[userID] {
		return nil, false, nil
	}
	return p.Calendar, true, nil
}

var _ service.Calendar = (*FakeCalendar)(nil)
