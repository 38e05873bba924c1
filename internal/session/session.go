// Package session issues and resolves the signed cookie that identifies the
// acting user. Resolution never fails the request: a missing or invalid
// cookie is an unauthenticated session.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// CookieName is the cookie carrying "Bearer <jwt>".
const CookieName = "Authorization"

// DefaultTTL is the lifetime of an issued session.
const DefaultTTL = 24 * time.Hour

var (
	errMissingCookie = errors.New("authentication required")
	errBadCookie     = errors.New("bad authorization cookie")
)

// Claims are the signed fields of a session token.
type Claims struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(u service.User) (string, error) {
	now := i.now()
	name := u.Name
	if name == "" {
		name = "Demo User"
	}
	claims := Claims{
		UserID:   u.ID,
		Username: name,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Cookie returns the session cookie for the user.
func (i *Issuer) Cookie(u service.User) (*http.Cookie, error) {
	token, err := i.Issue(u)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape("Bearer " + token),
		Path:     "/",
		MaxAge:   int(i.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Resolver turns cookie values into sessions.
type Resolver struct {
	secret []byte
	parser *jwt.Parser
}

// NewResolver creates a Resolver that accepts tokens signed with secret.
func NewResolver(secret string) *Resolver {
	return &Resolver{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Strict parses a cookie value and returns its claims or the reason it was
// rejected.
func (r *Resolver) Strict(cookieValue string) (*Claims, error) {
	if cookieValue == "" {
		return nil, errMissingCookie
	}
	raw, err := url.QueryUnescape(cookieValue)
	if err != nil {
		return nil, errBadCookie
	}
	token, ok := strings.CutPrefix(strings.TrimSpace(raw), "Bearer ")
	if !ok || strings.Count(token, ".") != 2 {
		return nil, errBadCookie
	}

	claims := &Claims{}
	_, err = r.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return r.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("missing _id")
	}
	return claims, nil
}

// Resolve returns the session for a cookie value. Anything invalid yields
// the unauthenticated session.
func (r *Resolver) Resolve(cookieValue string) service.Session {
	claims, err := r.Strict(cookieValue)
	if err != nil {
		if cookieValue != "" {
			log.WithError(err).Debug("ignoring invalid session cookie")
		}
		return service.Session{}
	}
	return service.Session{UserID: claims.UserID}
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess service.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored in ctx, or the unauthenticated one.
func FromContext(ctx context.Context) service.Session {
	sess, _ := ctx.Value(ctxKey{}).(service.Session)
	return sess
}

func cookieValue(c echo.Context) string {
	ck, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Middleware resolves the session cookie of every request into the request
// context.
func (r *Resolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := r.Resolve(cookieValue(c))
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// Require rejects requests without a valid session cookie.
func (r *Resolver) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value := cookieValue(c)
			if _, err := r.Strict(value); err != nil {
				msg := "Invalid authentication token"
				if value == "" {
					msg = "Authentication required"
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
			}
			return next(c)
		}
	}
}
