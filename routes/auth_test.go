package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awazgram-server/models"
	"awazgram-server/services"
)

func TestLogin_FormSetsCookie(t *testing.T) {
	s := newTestServer(t)
	_, err := s.auth.CreateAccount(context.Background(), services.AccountCreate{
		Username: "rampur_admin", Password: "password-123", VillageName: "Rampur",
	})
	require.NoError(t, err)

	w := s.postForm("/login", url.Values{"username": {"rampur_admin"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")

	w = s.postForm("/login", url.Values{
		"username": {"rampur_admin"},
		"password": {"password-123"},
		"next":     {"/admin/complaints"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/complaints", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "awazgram_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.NotEmpty(t, session.Value)

	w = s.postForm("/login", url.Values{
		"username": {"rampur_admin"},
		"password": {"password-123"},
		"next":     {"//evil.example.com"},
	})
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}

func TestLogin_JSONErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/login", gin.H{"username": "nobody"}, "")
	rejected(t, w, "validation_error")

	w = s.postJSON("/login", gin.H{"username": "nobody", "password": "password-123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestLogin_ResetRequired(t *testing.T) {
	s := newTestServer(t)
	user, err := s.auth.CreateAccount(context.Background(), services.AccountCreate{
		Username: "root", Password: "password-123", Role: models.RoleSuperuser,
	})
	require.NoError(t, err)
	require.NoError(t, s.db.Model(user).Update("must_reset_password", true).Error)

	w := s.postJSON("/login", gin.H{"username": "root", "password": "password-123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["reset_required"])

	w = s.postForm("/login", url.Values{"username": {"root"}, "password": {"password-123"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/password/reset", w.Header().Get("Location"))
}

func TestLogout_RevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.loginAdmin("rampur_admin", "Rampur")

	require.Equal(t, http.StatusOK, s.get("/admin/complaints", token).Code)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	assert.Equal(t, http.StatusUnauthorized, s.get("/admin/complaints", token).Code)
}

func TestPasswordReset_InvalidToken(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/password/reset", gin.H{"token": "bogus", "new_password": "long-enough-1"}, "")
	assert.Equal(t, "Invalid or expired reset token", rejected(t, w, "validation_error")["message"])

	w = s.postJSON("/password/reset", gin.H{"token": "bogus", "new_password": "short"}, "")
	rejected(t, w, "validation_error")

	w = s.postForm("/password/reset", url.Values{"token": {"bogus"}, "new_password": {"long-enough-1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired reset token")
}

func TestMiddlewareStack(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/health", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodOptions, "/api/statistics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/complaint", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "text/plain")
	w = s.do(req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = s.get("/no/such/route", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
