package middleware // middleware provides reusable HTTP middleware for the API

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/equip-control/internal/model"
    "github.com/iliyamo/equip-control/internal/token"
)

// BlacklistChecker reports whether an access token's jti has been revoked.
// The repository layer satisfies this; tests substitute a fake.
type BlacklistChecker interface {
    IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserLoader fetches the account behind a token subject so the middleware
// can confirm the account still exists and is active.
type UserLoader interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authorize returns an Echo middleware that validates a Bearer access
// token and loads the calling user into the request context.  A token is
// rejected when its signature or expiry fails, when it lacks a jti, when
// that jti sits on the blacklist, or when the account behind it no longer
// exists or has been deactivated.  All rejections answer 401 with the
// same generic message so callers cannot probe which check failed.
//
// On success handlers can read `c.Get("user")` (model.User),
// `c.Get("user_id")` (uint64), `c.Get("role")` (model.Role) and
// `c.Get("jti")` (string).
func Authorize(secret string, blacklist BlacklistChecker, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // The Authorization header must carry a Bearer token.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c)
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Signature and expiry are checked by the token package;
            // only HS256 tokens signed with our secret pass.
            claims, err := token.Parse(secret, raw)
            if err != nil {
                return unauthorized(c)
            }
            // Access tokens always carry a jti.  Refresh and scoped
            // tokens do not, so they can never authorize a request
            // even though they share the signing secret.
            jti, _ := claims["jti"].(string)
            if jti == "" {
                return unauthorized(c)
            }
            userID, err := token.Subject(claims)
            if err != nil {
                return unauthorized(c)
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            // A blacklisted jti means the token was revoked by logout.
            revoked, err := blacklist.IsRevoked(ctx, jti)
            if err != nil || revoked {
                return unauthorized(c)
            }
            // The account must still exist and be active.  Deactivated
            // accounts get the same 401 as a bad token.
            u, err := users.GetByID(ctx, userID)
            if err != nil || !u.IsActive {
                return unauthorized(c)
            }

            c.Set("user", u)
            c.Set("user_id", u.ID)
            c.Set("role", u.Role)
            c.Set("jti", jti)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
}
