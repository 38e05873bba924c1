package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/board"
	"taskboard/internal/service"
)

type boardRequest struct {
	Action      string            `json:"action"`
	Task        *service.TaskForm `json:"task"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func listBoards(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := boards.ListBoards(c.Request().Context(), sessionOf(c))
		if err != nil {
			return writeError(c, err)
		}
		if list == nil {
			list = []service.Board{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

func createBoard(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req boardRequest
		if err := decode(c, &req); err != nil {
			return writeError(c, err)
		}
		b, err := boards.CreateBoard(c.Request().Context(), sessionOf(c), req.Name, req.Description)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func getBoard(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.GetBoard(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

// putBoard either renames the board or, with action "addTask", adds a task
// and returns the whole board.
func putBoard(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req boardRequest
		if err := decode(c, &req); err != nil {
			return writeError(c, err)
		}
		ctx := c.Request().Context()

		var (
			b   service.Board
			err error
		)
		if req.Action == "addTask" {
			if req.Task == nil {
				return writeError(c, &service.ValidationError{Field: "task", Message: "task is required"})
			}
			b, err = boards.CreateTask(ctx, sessionOf(c), c.Param("id"), *req.Task)
		} else {
			b, err = boards.UpdateBoard(ctx, sessionOf(c), c.Param("id"), req.Name, req.Description)
		}
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func deleteBoard(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := boards.DeleteBoard(c.Request().Context(), sessionOf(c), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Board deleted successfully"})
	}
}

func updateTask(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form service.TaskForm
		if err := decode(c, &form); err != nil {
			return writeError(c, err)
		}
		t, err := boards.UpdateTask(c.Request().Context(), sessionOf(c), c.Param("id"), form)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func deleteTask(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := boards.DeleteTask(c.Request().Context(), sessionOf(c), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully"})
	}
}

type statusRequest struct {
	Status service.Status `json:"status"`
}

func moveTask(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req statusRequest
		if err := decode(c, &req); err != nil {
			return writeError(c, err)
		}
		t, err := boards.MoveTaskStatus(c.Request().Context(), sessionOf(c), c.Param("id"), req.Status)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

type syncRequest struct {
	SyncWithCalendar bool `json:"syncWithCalendar"`
}

type syncResponse struct {
	Success bool `json:"success"`
	Synced  bool `json:"synced"`
}

func toggleSync(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req syncRequest
		if err := decode(c, &req); err != nil {
			return writeError(c, err)
		}
		synced, err := boards.ToggleCalendarSync(c.Request().Context(), sessionOf(c), c.Param("id"), req.SyncWithCalendar)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, syncResponse{Success: true, Synced: synced})
	}
}

type settingsResponse struct {
	Settings service.CalendarSettings `json:"settings"`
}

type settingsListResponse struct {
	Settings  service.CalendarSettings `json:"settings"`
	Calendars []service.CalendarEntry  `json:"calendars"`
}

func getCalendarSettings(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		settings, calendars, err := boards.CalendarSettings(c.Request().Context(), sessionOf(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, settingsListResponse{Settings: settings, Calendars: calendars})
	}
}

func putCalendarSettings(boards *board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req service.CalendarSettings
		if err := decode(c, &req); err != nil {
			return writeError(c, err)
		}
		settings, err := boards.UpdateCalendarSettings(c.Request().Context(), sessionOf(c), req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, settingsResponse{Settings: settings})
	}
}
