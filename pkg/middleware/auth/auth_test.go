package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesotunes/storefront/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func run(t *testing.T, mw echo.MiddlewareFunc, setup func(r *http.Request)) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return c, err
}

func token(t *testing.T, role string) (string, string) {
	t.Helper()
	id := uuid.NewString()
	tok, err := tokens.NewAccessToken(id, role, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return id, tok
}

func TestRequireAuth_Bearer(t *testing.T) {
	m := NewAuthMiddleware(secret)
	id, tok := token(t, tokens.RoleCustomer)

	c, err := run(t, m.RequireAuth, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	})
	require.NoError(t, err)
	assert.Equal(t, id, c.Get(ContextUserID))
	assert.Equal(t, tokens.RoleCustomer, c.Get(ContextRole))
}

func TestRequireAuth_Cookie(t *testing.T) {
	m := NewAuthMiddleware(secret)
	id, tok := token(t, tokens.RoleCustomer)

	c, err := run(t, m.RequireAuth, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	})
	require.NoError(t, err)
	assert.Equal(t, id, c.Get(ContextUserID))
}

func TestRequireAuth_Missing(t *testing.T) {
	m := NewAuthMiddleware(secret)

	_, err := run(t, m.RequireAuth, nil)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAdmin_RejectsCustomer(t *testing.T) {
	m := NewAuthMiddleware(secret)
	_, tok := token(t, tokens.RoleCustomer)

	_, err := run(t, m.RequireAdmin, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	})
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireRole_AdmitsListedRole(t *testing.T) {
	m := NewAuthMiddleware(secret)
	_, tok := token(t, tokens.RoleStoreOwner)

	_, err := run(t, m.RequireRole(tokens.RoleAdmin, tokens.RoleStoreOwner), func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	})
	require.NoError(t, err)
}
