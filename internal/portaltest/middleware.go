package portaltest

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// failureInjector serves queued canned responses before the real handler runs.
func (p *Portal) failureInjector(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, ok := p.record(c.Request().URL.Path)
		if ok {
			if f.delay > 0 {
				select {
				case <-time.After(f.delay):
				case <-c.Request().Context().Done():
					return c.Request().Context().Err()
				}
			}
			if f.status != 0 {
				return c.Blob(f.status, echo.MIMEApplicationJSON, []byte(f.body))
			}
		}
		return next(c)
	}
}

// requireSession rejects requests without a live session cookie.
func (p *Portal) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		username, ok := p.sessionUser(cookie.Value)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		c.Set("session_id", cookie.Value)
		c.Set("username", username)
		return next(c)
	}
}

// requireBearer validates the identity provider JWT and injects its claims.
func (p *Portal) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid Authorization header")
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return p.clerkSecret, nil
		})
		if err != nil || !tkn.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set("sub", claims["sub"])
		c.Set("email", claims["email"])
		c.Set("name", claims["name"])
		return next(c)
	}
}
