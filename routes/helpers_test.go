package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"awazgram-server/config"
	"awazgram-server/database"
	"awazgram-server/models"
	"awazgram-server/services"
)

type testServer struct {
	t          *testing.T
	db         *gorm.DB
	cfg        *config.Config
	router     *gin.Engine
	auth       *services.AuthService
	complaints *services.ComplaintService
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL:        "http://localhost:8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:   10 << 20,
		},
		JWT: config.JWTConfig{
			Secret:      "routes-test-secret",
			ExpiryHours: 1,
			CookieName:  "awazgram_session",
			Issuer:      "awazgram-test",
		},
		Complaint: config.ComplaintConfig{IDMaxAttempts: 5, RecentLimit: 5, QRSize: 128},
		Media: config.MediaConfig{
			Backend:  "local",
			Root:     t.TempDir(),
			URLPath:  "/media",
			MaxBytes: 1 << 20,
		},
		RateLimit: config.RateLimitConfig{
			SubmitPerMinute: 1000,
			SubmitBurst:     1000,
			LoginPerMinute:  1000,
			LoginBurst:      1000,
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(t))
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := services.NewLocalMediaStore(cfg.Media.Root, cfg.Media.URLPath)
	ids := &services.DateIDGenerator{Prefix: "AWZ", Location: time.UTC}
	complaints := services.NewComplaintService(db, ids, services.NewQREncoder(store, cfg.Complaint.QRSize), store, cfg.Complaint)
	auth := services.NewAuthService(db, services.NewJWTService(cfg.JWT), services.NewMemoryTokenBlacklist(), time.Hour)

	router := SetupRouter(Deps{
		Config:     cfg,
		Complaints: complaints,
		Stats:      services.NewStatsService(db, cfg.Complaint.RecentLimit),
		Auth:       auth,
		Staff:      services.NewStaffService(db, auth, services.NewLogMailer()),
	})

	return &testServer{t: t, db: db, cfg: cfg, router: router, auth: auth, complaints: complaints}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(s.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return s.do(req)
}

func (s *testServer) get(path, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// loginAdmin creates an administrator for village and returns a session token.
func (s *testServer) loginAdmin(username, village string) string {
	s.t.Helper()
	_, err := s.auth.CreateAccount(context.Background(), services.AccountCreate{
		Username:    username,
		Password:    "password-123",
		VillageName: village,
	})
	require.NoError(s.t, err)

	w := s.postJSON("/login", gin.H{"username": username, "password": "password-123"}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(s.t, w)["token"].(string)
	require.NotEmpty(s.t, token)
	return token
}

// submit files a complaint through the JSON API and returns its id.
func (s *testServer) submit(location string) string {
	s.t.Helper()
	w := s.postJSON("/complaint", gin.H{
		"name":     "Sita",
		"location": location,
		"issue":    "Hand pump broken",
		"category": "water",
	}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	id, _ := decode(s.t, w)["complaint_id"].(string)
	require.NotEmpty(s.t, id)
	return id
}

func (s *testServer) status(complaintID string) models.ComplaintStatus {
	s.t.Helper()
	var c models.Complaint
	require.NoError(s.t, s.db.Where("complaint_id = ?", complaintID).First(&c).Error)
	return c.Status
}

func (s *testServer) trackingCount(complaintID string) int64 {
	s.t.Helper()
	var c models.Complaint
	require.NoError(s.t, s.db.Where("complaint_id = ?", complaintID).First(&c).Error)
	var n int64
	require.NoError(s.t, s.db.Model(&models.ComplaintTracking{}).Where("complaint_id = ?", c.ID).Count(&n).Error)
	return n
}

// rejected checks a business-rule failure: 200 with success false and the error type.
func rejected(t *testing.T, w *httptest.ResponseRecorder, errType string) map[string]interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, false, body["success"], w.Body.String())
	require.Equal(t, errType, body["error"], w.Body.String())
	return body
}

// postAdminForm submits an HTML form with the session cookie, as the detail page does.
func (s *testServer) postAdminForm(path string, form url.Values, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: s.cfg.JWT.CookieName, Value: token})
	return s.do(req)
}

// addStaff creates a staff member through the admin API and returns its id.
func (s *testServer) addStaff(username, token string) float64 {
	s.t.Helper()
	w := s.postJSON("/admin/staff", gin.H{"username": username, "designation": "Lineman"}, token)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	staff := decode(s.t, w)["data"].(map[string]interface{})["staff"].(map[string]interface{})
	return staff["id"].(float64)
}
