package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/errs"
	"github.com/deppfellow/portfolio/internal/server"
)

const (
	// RoleAdmin is the Clerk organization role allowed to do anything.
	RoleAdmin = "org:admin"
	// PermissionDeleteProjects lets non-admin members delete projects.
	PermissionDeleteProjects = "org:projects:delete"

	PermissionsKey = "permissions"
)

type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth validates the Clerk session token in the Authorization header
// and stores user_id, user_role and permissions on the Echo context.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(auth.writeUnauthorized))))(
		func(c echo.Context) error {
			start := time.Now()

			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				GetLogger(c).Warn().
					Str("function", "RequireAuth").
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)
			c.Set(PermissionsKey, claims.Claims.ActiveOrganizationPermissions)
			WithUser(c)

			GetLogger(c).Debug().
				Str("function", "RequireAuth").
				Str("user_id", claims.Subject).
				Dur("duration", time.Since(start)).
				Msg("user authenticated successfully")

			return next(c)
		})
}

// writeUnauthorized runs when Clerk rejects the token. It sits outside the
// Echo chain, so it writes the error envelope itself.
func (auth *AuthMiddleware) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	body := errs.NewUnauthorizedError("Unauthorized", false)

	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(http.StatusUnauthorized)

	if err := writeJSON(w, body); err != nil {
		auth.server.Logger.Error().
			Err(err).
			Str("function", "RequireAuth").
			Msg("failed to write JSON response")
		return
	}

	auth.server.Logger.Warn().
		Str("function", "RequireAuth").
		Str("path", r.URL.Path).
		Msg("rejected request without a valid session token")
}

// RequirePermission lets the request through when the authenticated user
// holds role, or any of permissions. It must run after RequireAuth.
func (auth *AuthMiddleware) RequirePermission(role string, permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserID(c) == "" {
				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			if GetUserRole(c) == role {
				return next(c)
			}

			granted := GetPermissions(c)
			for _, p := range permissions {
				if slices.Contains(granted, p) {
					return next(c)
				}
			}

			return errs.NewForbiddenError("You do not have permission to perform this action.", true)
		}
	}
}

// GetPermissions returns the organization permissions set by RequireAuth.
func GetPermissions(c echo.Context) []string {
	if perms, ok := c.Get(PermissionsKey).([]string); ok {
		return perms
	}
	return nil
}
