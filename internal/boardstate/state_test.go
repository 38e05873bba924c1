package boardstate

import (
	"errors"
	"testing"

	"taskboard/internal/service"
)

func sample() service.Board {
	return service.Board{
		ID:   "b1",
		Name: "Home",
		Tasks: []service.Task{
			{ID: "t1", BoardID: "b1", Name: "a", Status: service.StatusToDo},
			{ID: "t2", BoardID: "b1", Name: "b", Status: service.StatusCompleted},
			{ID: "t3", BoardID: "b1", Name: "c", Status: service.StatusToDo},
		},
	}
}

func TestZeroValue(t *testing.T) {
	var s State
	if _, ok := s.Board(); ok {
		t.Error("expected no board")
	}
	if cols := s.Columns(); len(cols) != 4 {
		t.Errorf("expected 4 columns, got %d", len(cols))
	}
}

func TestSetBoardCopiesTasks(t *testing.T) {
	var s State
	b := sample()
	s.SetBoard(b)
	b.Tasks[0].Name = "mutated"

	got, ok := s.Board()
	if !ok {
		t.Fatal("expected a board")
	}
	if got.Tasks[0].Name != "a" {
		t.Errorf("expected state isolated from caller slice, got %q", got.Tasks[0].Name)
	}
}

func TestColumns(t *testing.T) {
	var s State
	s.SetBoard(sample())

	cols := s.Columns()
	want := []struct {
		status service.Status
		ids    []string
	}{
		{service.StatusToDo, []string{"t1", "t3"}},
		{service.StatusInProgress, nil},
		{service.StatusCompleted, []string{"t2"}},
		{service.StatusWontDo, nil},
	}
	for i, w := range want {
		if cols[i].Status != w.status {
			t.Errorf("column %d: expected %q, got %q", i, w.status, cols[i].Status)
		}
		if len(cols[i].Tasks) != len(w.ids) {
			t.Errorf("column %q: expected %d tasks, got %d", w.status, len(w.ids), len(cols[i].Tasks))
			continue
		}
		for j, id := range w.ids {
			if cols[i].Tasks[j].ID != id {
				t.Errorf("column %q[%d]: expected %q, got %q", w.status, j, id, cols[i].Tasks[j].ID)
			}
		}
	}
}

func TestApplyTask(t *testing.T) {
	var s State
	s.SetBoard(sample())

	s.ApplyTask(service.Task{ID: "t1", BoardID: "b1", Name: "a", Status: service.StatusInProgress})
	s.ApplyTask(service.Task{ID: "t4", BoardID: "b1", Name: "d", Status: service.StatusWontDo})
	s.ApplyTask(service.Task{ID: "x", BoardID: "other", Name: "x"})

	b, _ := s.Board()
	if len(b.Tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(b.Tasks))
	}
	if b.Tasks[0].ID != "t1" || b.Tasks[0].Status != service.StatusInProgress {
		t.Errorf("expected t1 replaced in place, got %+v", b.Tasks[0])
	}
	if b.Tasks[3].ID != "t4" {
		t.Errorf("expected t4 appended, got %q", b.Tasks[3].ID)
	}
}

func TestRemoveTask(t *testing.T) {
	var s State
	s.SetBoard(sample())
	s.RemoveTask("t2")
	s.RemoveTask("missing")

	b, _ := s.Board()
	if len(b.Tasks) != 2 || b.Tasks[0].ID != "t1" || b.Tasks[1].ID != "t3" {
		t.Errorf("unexpected tasks %+v", b.Tasks)
	}
}

func TestErrorAndAccess(t *testing.T) {
	var s State
	boom := errors.New("boom")
	s.SetError(boom)
	s.SetCalendarAccess(true)

	if !errors.Is(s.Err(), boom) {
		t.Errorf("expected %v, got %v", boom, s.Err())
	}
	if !s.HasCalendarAccess() {
		t.Error("expected calendar access")
	}
	s.SetBoard(sample())
	if s.Err() != nil {
		t.Errorf("expected error cleared by SetBoard, got %v", s.Err())
	}
}
