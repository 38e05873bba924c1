package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

const stateCookie = "oauth_state"

func googleRedirect(oauth OAuth) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !oauth.Configured() {
			log.Warn("google sign-in requested but no oauth client is configured")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to initiate Google authentication"})
		}
		state := uuid.NewString()
		c.SetCookie(&http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/api/auth",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return c.Redirect(http.StatusFound, oauth.AuthCodeURL(state))
	}
}

// googleCallback finishes the consent flow. Without a valid session a demo
// account is created so the tokens have an owner.
func googleCallback(boards *board.Service, oauth OAuth, issuer *session.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		code := c.QueryParam("code")
		if code == "" {
			return c.Redirect(http.StatusFound, "/login?error=no_code")
		}
		if ck, err := c.Cookie(stateCookie); err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
			return c.Redirect(http.StatusFound, "/login?error=invalid_state")
		}

		sess := sessionOf(c)
		if !sess.Authenticated() {
			u, err := boards.CreateDemoUser(ctx)
			if err != nil {
				log.WithError(err).Error("failed to create demo user for google callback")
				return c.Redirect(http.StatusFound, "/login?error=callback_failed")
			}
			if err := setSessionCookie(c, issuer, u); err != nil {
				return c.Redirect(http.StatusFound, "/login?error=callback_failed")
			}
			sess = service.Session{UserID: u.ID}
		}

		fields := log.Fields{"user": sess.UserID}
		tok, err := oauth.ExchangeCode(ctx, code)
		if err != nil {
			log.WithFields(fields).WithError(err).Error("google code exchange failed")
			return c.Redirect(http.StatusFound, "/calendar-settings?error=token_processing")
		}
		if err := oauth.StoreTokens(ctx, sess.UserID, tok); err != nil {
			log.WithFields(fields).WithError(err).Error("failed to store google tokens")
			return c.Redirect(http.StatusFound, "/calendar-settings?error=token_processing")
		}
		if err := boards.EnsureCalendarSettings(ctx, sess.UserID); err != nil {
			log.WithFields(fields).WithError(err).Error("failed to create calendar settings")
			return c.Redirect(http.StatusFound, "/calendar-settings?error=token_processing")
		}
		log.WithFields(fields).Info("connected google calendar")
		return c.Redirect(http.StatusFound, "/calendar-settings?success=true")
	}
}

// demoLogin creates a demo account, signs it in and redirects to
// ?redirectTo or fallback.
func demoLogin(boards *board.Service, issuer *session.Issuer, fallback string) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := boards.CreateDemoUser(c.Request().Context())
		if err != nil {
			log.WithError(err).Error("failed to create demo user")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create demo user"})
		}
		if err := setSessionCookie(c, issuer, u); err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create demo user"})
		}
		return c.Redirect(http.StatusFound, localRedirect(c.QueryParam("redirectTo"), fallback))
	}
}

type demoLoginResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

func demoLoginJSON(boards *board.Service, issuer *session.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := boards.CreateDemoUser(c.Request().Context())
		if err != nil {
			log.WithError(err).Error("failed to create demo user")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create demo user"})
		}
		if err := setSessionCookie(c, issuer, u); err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create demo user"})
		}
		return c.JSON(http.StatusOK, demoLoginResponse{Success: true, UserID: u.ID})
	}
}

func setSessionCookie(c echo.Context, issuer *session.Issuer, u service.User) error {
	ck, err := issuer.Cookie(u)
	if err != nil {
		log.WithField("user", u.ID).WithError(err).Error("failed to issue session")
		return err
	}
	c.SetCookie(ck)
	return nil
}

// localRedirect accepts only same-site paths.
func localRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if u, err := url.Parse(target); err != nil || u.Host != "" {
		return fallback
	}
	return target
}
