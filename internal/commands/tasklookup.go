package commands

import (
	"context"

	"taskboard/internal/app"
	"taskboard/internal/boardstate"
	"taskboard/internal/service"
)

// findTask resolves a task reference. Id references are looked up directly;
// positional references are resolved against the board's columns.
func findTask(ctx context.Context, a *app.App, boardRef string, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		return a.Store.GetTask(ctx, ref.ID)
	}

	b, err := ResolveBoard(ctx, a, boardRef)
	if err != nil {
		return service.Task{}, err
	}

	var st boardstate.State
	st.SetBoard(b)
	cols := st.Columns()
	if ref.Column >= len(cols) {
		return service.Task{}, service.NotFoundError("task", ref.String())
	}
	tasks := cols[ref.Column].Tasks
	if ref.Num > len(tasks) {
		return service.Task{}, service.NotFoundError("task", ref.String())
	}
	return tasks[ref.Num-1], nil
}
