package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
	"absensi/internal/config"
	"absensi/internal/face"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(Deps{
		Cfg: config.App{
			JWTIssuer:     "absensi-test",
			JWTSigningKey: "test-secret",
		},
		Extractor: face.NewClient("", true),
	})
	r := gin.New()
	h.Routes(r)
	return r
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code attendance.Code
		want int
	}{
		{attendance.CodeOK, http.StatusOK},
		{attendance.CodeAlreadyCheckedIn, http.StatusConflict},
		{attendance.CodeAlreadyCheckedOut, http.StatusConflict},
		{attendance.CodeNotCheckedIn, http.StatusConflict},
		{attendance.CodeOutsideArea, http.StatusBadRequest},
		{attendance.CodeFaceMismatch, http.StatusBadRequest},
		{attendance.CodePhotoRequired, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter(t)
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/v1/attendance/checkin"},
		{http.MethodPost, "/v1/attendance/checkout"},
		{http.MethodGet, "/v1/attendance/today"},
		{http.MethodGet, "/v1/reports/daily"},
		{http.MethodPost, "/v1/face"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestHealthzReportsUnavailableWithoutDB(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["db"] != false {
		t.Errorf("db = %v, want false", body["db"])
	}
	if body["face"] != true {
		t.Errorf("face = %v, want true (skip mode)", body["face"])
	}
}

func TestUsernameAvailableRequiresQuery(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/username-available", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
