package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dental-referral-tracker/config"
	"dental-referral-tracker/internal/delivery/http/handler"
	"dental-referral-tracker/internal/delivery/http/middleware"
	"dental-referral-tracker/pkg/jwt"
	"dental-referral-tracker/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllSessions struct{}

func (allowAllSessions) Save(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string, ttl time.Duration) error {
	return nil
}

func (allowAllSessions) Exists(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) (bool, error) {
	return true, nil
}

func (allowAllSessions) Revoke(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) error {
	return nil
}

func setupRouter(t *testing.T) (*mux.Router, *jwt.JWTService) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	v := validator.NewValidator()

	// usecases are never reached by the requests below
	router := NewRouter(
		handler.NewAuthHandler(nil, v, jwtService),
		handler.NewReferralHandler(nil, v),
		handler.NewDashboardHandler(nil),
		handler.NewAdminHandler(nil, v),
		handler.NewAuditLogHandler(nil),
		middleware.NewAuthMiddleware(jwtService, allowAllSessions{}, log),
		middleware.NewCORSMiddleware("*"),
	)
	return router.Setup(), jwtService
}

func TestPublicRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "referral_tracker_http_requests_total"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := setupRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/sync"},
		{http.MethodGet, "/api/v1/dentists"},
		{http.MethodPost, "/api/v1/referrals"},
		{http.MethodGet, "/api/v1/referrals/unscheduled"},
		{http.MethodPost, "/api/v1/referrals/3/schedule"},
		{http.MethodPost, "/api/v1/referrals/3/payment"},
		{http.MethodDelete, "/api/v1/referrals/3"},
		{http.MethodGet, "/api/v1/dashboard/ranking"},
		{http.MethodGet, "/api/v1/admin/staff"},
		{http.MethodGet, "/api/v1/admin/audit-logs"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestAdminRoutesRequireManager(t *testing.T) {
	r, jwtService := setupRouter(t)

	token, _, err := jwtService.GenerateAccessToken(jwt.Subject{StaffID: 1, Username: "recepcao", Role: "staff"})
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/admin/dentists", "/api/v1/admin/staff", "/api/v1/admin/audit-logs"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}
