package handlers

import (
	"testing"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/token"
	xhttp "github.com/nimasrn/canteen-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	maker := token.NewMaker("test-secret", time.Hour)

	var reached bool
	next := func(ctx *xhttp.RequestCtx) { reached = true }
	handler := AuthMiddleware(maker)(next)

	t.Run("public path skips auth", func(t *testing.T) {
		reached = false
		ctx := setupTestContext("POST", "/api/v1/auth/login", nil)
		handler(ctx)
		assert.True(t, reached)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		reached = false
		ctx := setupTestContext("GET", "/api/v1/products", nil)
		handler(ctx)
		assert.False(t, reached)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("malformed token", func(t *testing.T) {
		reached = false
		ctx := setupTestContext("GET", "/api/v1/products", nil)
		ctx.Request.Header.Set("Authorization", "Bearer garbage")
		handler(ctx)
		assert.False(t, reached)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("valid token stashes the principal", func(t *testing.T) {
		reached = false
		signed, err := maker.Generate(7, model.RoleCashier)
		require.NoError(t, err)

		ctx := setupTestContext("GET", "/api/v1/products", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+signed)
		handler(ctx)

		assert.True(t, reached)
		u, ok := authUser(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(7), u.UserID)
		assert.Equal(t, model.RoleCashier, u.Role)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		reached = false
		other := token.NewMaker("other-secret", time.Hour)
		signed, err := other.Generate(7, model.RoleCashier)
		require.NoError(t, err)

		ctx := setupTestContext("GET", "/api/v1/products", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+signed)
		handler(ctx)

		assert.False(t, reached)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})
}

func TestRequireRoles(t *testing.T) {
	var reached bool
	protected := requireRoles(func(ctx *xhttp.RequestCtx) { reached = true }, model.RoleAdmin)

	t.Run("no principal", func(t *testing.T) {
		reached = false
		ctx := setupTestContext("GET", "/api/v1/users", nil)
		protected(ctx)
		assert.False(t, reached)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("wrong role", func(t *testing.T) {
		reached = false
		ctx := asActor(setupTestContext("GET", "/api/v1/users", nil),
			model.AuthUser{UserID: 1, Role: model.RoleStudent})
		protected(ctx)
		assert.False(t, reached)
		assert.Equal(t, 403, ctx.Response.StatusCode())
	})

	t.Run("allowed role", func(t *testing.T) {
		reached = false
		ctx := asActor(setupTestContext("GET", "/api/v1/users", nil),
			model.AuthUser{UserID: 1, Role: model.RoleAdmin})
		protected(ctx)
		assert.True(t, reached)
	})

	t.Run("any of several roles", func(t *testing.T) {
		either := requireRoles(func(ctx *xhttp.RequestCtx) { reached = true },
			model.RoleCashier, model.RoleAdmin)

		reached = false
		ctx := asActor(setupTestContext("GET", "/api/v1/transactions", nil),
			model.AuthUser{UserID: 1, Role: model.RoleCashier})
		either(ctx)
		assert.True(t, reached)
	})
}
