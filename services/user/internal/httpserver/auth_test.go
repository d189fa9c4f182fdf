package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkravets/shop-system/pkg/validate"
	"github.com/mkravets/shop-system/services/user/internal/models"
	"github.com/mkravets/shop-system/services/user/internal/repo"
	"github.com/mkravets/shop-system/services/user/internal/service"
	"github.com/mkravets/shop-system/services/user/internal/transport"
)

func newTestHandler(t *testing.T) (*AuthHTTP, *echo.Echo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	e := echo.New()
	e.Validator = validate.New()

	h := &AuthHTTP{Svc: &service.AuthService{
		Repo:      &repo.GormRepo{DB: db},
		JWTSecret: []byte("test-jwt-secret"),
		TokenTTL:  15 * time.Minute,
	}}
	return h, e
}

func jsonRequest(t *testing.T, e *echo.Echo, method, target string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHTTP_Register(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)
	payload := map[string]string{"username": "test_user", "password": "long-enough-pw"}

	c, rec := jsonRequest(t, e, http.MethodPost, "/api/users/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "test_user", got["username"])
	assert.Equal(t, "user", got["role"])
	assert.NotEmpty(t, got["id"])

	c, _ = jsonRequest(t, e, http.MethodPost, "/api/users/register", payload)
	err := h.Register(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestAuthHTTP_Register_Validation(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)

	c, _ := jsonRequest(t, e, http.MethodPost, "/api/users/register",
		map[string]string{"username": "ok_user", "password": "short"})
	err := h.Register(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAuthHTTP_LoginAndValidate(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)
	payload := map[string]string{"username": "test_user", "password": "long-enough-pw"}

	c, _ := jsonRequest(t, e, http.MethodPost, "/api/users/register", payload)
	require.NoError(t, h.Register(c))

	c, rec := jsonRequest(t, e, http.MethodPost, "/api/users/login", payload)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var token transport.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.Token)
	assert.Greater(t, token.ExpiresAt, time.Now().Unix())

	req := httptest.NewRequest(http.MethodGet, "/api/authentications/validate", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec = httptest.NewRecorder()
	require.NoError(t, h.Validate(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var principal transport.PrincipalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &principal))
	assert.Equal(t, "test_user", principal.Username)
	assert.Equal(t, "user", principal.Role)
}

func TestAuthHTTP_Login_BadPassword(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)

	c, _ := jsonRequest(t, e, http.MethodPost, "/api/users/register",
		map[string]string{"username": "test_user", "password": "long-enough-pw"})
	require.NoError(t, h.Register(c))

	c, _ = jsonRequest(t, e, http.MethodPost, "/api/users/login",
		map[string]string{"username": "test_user", "password": "wrong-password"})
	err := h.Login(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAuthHTTP_Validate_BadToken(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/authentications/validate", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		err := h.Validate(e.NewContext(req, rec))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he, "header %q", header)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	}
}

func TestAuthHTTP_DeleteUser(t *testing.T) {
	t.Parallel()

	h, e := newTestHandler(t)

	c, _ := jsonRequest(t, e, http.MethodPost, "/api/users/register",
		map[string]string{"username": "doomed", "password": "long-enough-pw"})
	require.NoError(t, h.Register(c))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/doomed", nil)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("username")
	c.SetParamValues("doomed")

	require.NoError(t, h.DeleteUser(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/users/doomed", nil), httptest.NewRecorder())
	c.SetParamNames("username")
	c.SetParamValues("doomed")

	err := h.DeleteUser(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
