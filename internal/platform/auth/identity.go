package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const actorKey contextKey = "actor"

// Roles known to the transfer workflows.
const (
	RoleEMS      = "EMS"
	RoleHospital = "HOSPITAL"
	RoleAdmin    = "ADMIN"
)

// Actor is the authenticated user as the rest of the service sees it. The
// service trusts these values as-is; credential verification happens
// upstream at the identity provider.
type Actor struct {
	ID         int64  `json:"id"`
	Role       string `json:"role"`
	TeamID     *int   `json:"team_id,omitempty"`
	HospitalID *int   `json:"hospital_id,omitempty"`
}

// Claims is the JWT payload issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	UserID     int64  `json:"uid"`
	Role       string `json:"role"`
	TeamID     *int   `json:"team_id"`
	HospitalID *int   `json:"hospital_id"`
}

// Config holds identity middleware settings.
type Config struct {
	// SigningKey is the HS256 key shared with the identity provider.
	SigningKey []byte
	Issuer     string
	Audience   string
}

// Middleware parses the bearer token and places the resulting Actor on the
// request context. Requests without a valid token are rejected; route
// groups apply RequireRole on top of this.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actor := &Actor{
				ID:         claims.UserID,
				Role:       claims.Role,
				TeamID:     claims.TeamID,
				HospitalID: claims.HospitalID,
			}
			c.SetRequest(c.Request().WithContext(WithActor(c.Request().Context(), actor)))
			return next(c)
		}
	}
}

// DevMiddleware injects a fixed admin actor so the API is usable without an
// identity provider during development.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ActorFromContext(c.Request().Context()) == nil {
				actor := &Actor{ID: 1, Role: RoleAdmin}
				c.SetRequest(c.Request().WithContext(WithActor(c.Request().Context(), actor)))
			}
			return next(c)
		}
	}
}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor, or nil when the request
// is unauthenticated.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey).(*Actor)
	return actor
}
