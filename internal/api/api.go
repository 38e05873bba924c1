// Package api exposes the board service over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"taskboard/internal/board"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

const maxBodySize = 1 << 20

var errInvalidBody = errors.New("invalid body")

// OAuth is the part of the token manager the auth routes need.
type OAuth interface {
	Configured() bool
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	ExchangeCode(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	StoreTokens(ctx context.Context, userID string, tok *oauth2.Token) error
}

// Deps are the components the routes are built from.
type Deps struct {
	Boards   *board.Service
	OAuth    OAuth
	Issuer   *session.Issuer
	Resolver *session.Resolver
}

// New returns an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	Register(e, d)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.Use(d.Resolver.Middleware())
	protected := d.Resolver.Require()

	e.GET("/healthz", healthz())

	e.GET("/api/boards", listBoards(d.Boards))
	e.POST("/api/boards", createBoard(d.Boards))
	e.GET("/api/boards/:id", getBoard(d.Boards))
	e.PUT("/api/boards/:id", putBoard(d.Boards))
	e.DELETE("/api/boards/:id", deleteBoard(d.Boards))

	e.PUT("/api/tasks/:id", updateTask(d.Boards))
	e.DELETE("/api/tasks/:id", deleteTask(d.Boards))
	e.PUT("/api/tasks/:id/status", moveTask(d.Boards))
	e.POST("/api/tasks/:id/calendar-sync", toggleSync(d.Boards), protected)

	e.GET("/api/calendar-settings", getCalendarSettings(d.Boards), protected)
	e.PUT("/api/calendar-settings", putCalendarSettings(d.Boards), protected)

	e.GET("/api/auth/google", googleRedirect(d.OAuth))
	e.GET("/api/auth/callback/google", googleCallback(d.Boards, d.OAuth, d.Issuer))
	e.GET("/api/auth/demo-login", demoLogin(d.Boards, d.Issuer, "/"))
	e.POST("/api/auth/demo-login", demoLoginJSON(d.Boards, d.Issuer))
	e.GET("/api/auth/calendar-bridge", demoLogin(d.Boards, d.Issuer, "/api/auth/google"))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func sessionOf(c echo.Context) service.Session {
	return session.FromContext(c.Request().Context())
}

// decode reads a JSON request body into v.
func decode(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors to HTTP statuses.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, errInvalidBody):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidOperation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Not authenticated"})
	default:
		log.WithFields(log.Fields{"method": c.Request().Method, "path": c.Path()}).WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
