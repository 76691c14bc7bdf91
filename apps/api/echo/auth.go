package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core/auth"
)

const (
	defaultCookieName = "cuaderno_auth"
	contextClaimsKey  = "claims"
)

type (
	LoginRequest struct {
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	AuthStatus struct {
		Required      bool `json:"required"`
		Authenticated bool `json:"authenticated"`
	}
)

type authApi struct {
	gate       *auth.Gate
	cookieName string
}

func registerAuthAPI(g *echo.Group, gate *auth.Gate, cookieName string) {
	api := authApi{gate: gate, cookieName: cookieName}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.GET("/status", api.status)
}

// requestToken reads the session token from the Bearer header, else from the cookie.
func requestToken(ctx echo.Context, cookieName string) string {
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := ctx.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// authMiddleware lets every request through when no password is configured.
func authMiddleware(gate *auth.Gate, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !gate.Enabled() {
				return next(ctx)
			}
			token := requestToken(ctx, cookieName)
			if token == "" {
				return errUnauthorized
			}
			claims, err := gate.Verify(token)
			if err != nil {
				return errUnauthorized
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func (api *authApi) setCookie(ctx echo.Context, value string, maxAge int, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     api.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   ctx.IsTLS(),
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	token, expiresAt, err := api.gate.Login(data.Password)
	if err != nil {
		if errors.Cause(err) == auth.ErrInvalidPassword {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}
	if token != "" {
		api.setCookie(ctx, token, int(api.gate.TTL().Seconds()), expiresAt)
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.setCookie(ctx, "", -1, time.Unix(0, 0))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) status(ctx echo.Context) error {
	st := AuthStatus{Required: api.gate.Enabled(), Authenticated: true}
	if st.Required {
		_, err := api.gate.Verify(requestToken(ctx, api.cookieName))
		st.Authenticated = err == nil
	}
	return ctx.JSON(http.StatusOK, st)
}
