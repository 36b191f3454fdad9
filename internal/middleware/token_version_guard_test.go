package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/domain/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) IncrementTokenVersion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func guardRequest(t *testing.T, mw echo.MiddlewareFunc, setup func(c echo.Context)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	require.NoError(t, mw(ok)(c))
	return rec
}

// Test: tvがDBと一致していれば通過
func TestTokenVersionGuard_Match(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByID", mock.Anything, "user-1").
		Return(&model.User{ID: "user-1", TokenVersion: 2}, nil)

	rec := guardRequest(t, TokenVersionGuard(repo), func(c echo.Context) {
		c.Set(CtxUserIDKey, "user-1")
		c.Set(CtxTokenVersionKey, 2)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

// Test: ForceLogoutで+1された後の古いtvは401
func TestTokenVersionGuard_StaleVersion(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByID", mock.Anything, "user-1").
		Return(&model.User{ID: "user-1", TokenVersion: 3}, nil)

	rec := guardRequest(t, TokenVersionGuard(repo), func(c echo.Context) {
		c.Set(CtxUserIDKey, "user-1")
		c.Set(CtxTokenVersionKey, 2)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: AuthJWTを経ていない（contextが空の）リクエストは401
func TestTokenVersionGuard_MissingContext(t *testing.T) {
	repo := new(mockUserRepo)

	rec := guardRequest(t, TokenVersionGuard(repo), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "FindByID")
}

// Test: ユーザーが消えていたら401
func TestTokenVersionGuard_UserGone(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByID", mock.Anything, "user-gone").
		Return(nil, assert.AnError)

	rec := guardRequest(t, TokenVersionGuard(repo), func(c echo.Context) {
		c.Set(CtxUserIDKey, "user-gone")
		c.Set(CtxTokenVersionKey, 0)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Test: ADMIN以外は403
func TestAdminRoleGuard(t *testing.T) {
	mw := AdminRoleGuard()

	rec := guardRequest(t, mw, func(c echo.Context) {
		c.Set(CtxUserRoleKey, string(model.RoleAdmin))
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = guardRequest(t, mw, func(c echo.Context) {
		c.Set(CtxUserRoleKey, string(model.RoleUser))
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	//roleなし（AuthJWT未通過）も403
	rec = guardRequest(t, mw, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
