package handlers

import (
	"strings"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/token"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
)

const authUserKey = "auth_user"

// AuthMiddleware validates the bearer token and stashes the authenticated
// principal on the request context. Login and health stay public.
func AuthMiddleware(maker *token.Maker) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			if isPublicPath(string(ctx.Path())) {
				next(ctx)
				return
			}

			header := string(ctx.Request.Header.Peek("Authorization"))
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(ctx, 401, "missing bearer token")
				return
			}

			claims, err := maker.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(ctx, 401, err.Error())
				return
			}

			ctx.SetUserValue(authUserKey, model.AuthUser{
				UserID: claims.UserID,
				Role:   claims.Role,
			})
			next(ctx)
		}
	}
}

func isPublicPath(p string) bool {
	switch p {
	case "/api/v1/auth/login", "/api/v1/health", "/metrics":
		return true
	}
	return false
}

// authUser returns the principal placed by AuthMiddleware.
func authUser(ctx *xhttp.RequestCtx) (model.AuthUser, bool) {
	u, ok := ctx.UserValue(authUserKey).(model.AuthUser)
	return u, ok
}

// requireRoles gates a single route on the caller's role.
func requireRoles(h xhttp.RequestHandler, roles ...model.Role) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		u, ok := authUser(ctx)
		if !ok {
			writeError(ctx, 401, "authentication required")
			return
		}
		for _, r := range roles {
			if u.Role == r {
				h(ctx)
				return
			}
		}
		writeError(ctx, 403, "insufficient role")
	}
}
