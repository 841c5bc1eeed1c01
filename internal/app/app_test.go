package app

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/config"
	"github.com/iliyamo/indias-got-voice/internal/model"
	"github.com/iliyamo/indias-got-voice/internal/service"
	"github.com/iliyamo/indias-got-voice/internal/utils"
)

const secret = "test-secret"

func testOptions() Options {
	return Options{
		Config: config.Config{Env: "test", Port: "0", JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 30, BcryptCost: 4},
		Live: config.LiveConfig{
			ChatInterval:     3 * time.Second,
			LiveInterval:     time.Second,
			ShowListInterval: 10 * time.Second,
			CommentFeedLimit: 50,
			WSMaxMessageSize: 4096,
		},
		Cache: config.CacheConfig{
			Enabled:     true,
			TTL:         10 * time.Second,
			Prefix:      "igv:cache",
			KeyStrategy: "route_query",
			Methods:     map[string]bool{http.MethodGet: true},
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func newServer(t *testing.T) (*Server, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewWithDeps(testOptions(), zap.NewNop(), db, rdb, service.NopPublisher{})
	t.Cleanup(func() {
		s.hub.Close()
		assert.NoError(t, mock.ExpectationsWereMet())
		rdb.Close()
		db.Close()
	})
	return s, mock, mr
}

func serve(s *Server, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, id uint64, role string) string {
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestHealthz(t *testing.T) {
	s, _, _ := newServer(t)
	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRoutesEnforceAuth(t *testing.T) {
	s, _, _ := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/v1/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/v1/shows/1/live", "").Code)
	assert.Equal(t, http.StatusForbidden,
		serve(s, http.MethodGet, "/v1/admin/shows", token(t, 2, model.UserTypeViewer)).Code)
	assert.Equal(t, http.StatusForbidden,
		serve(s, http.MethodPost, "/v1/shows/1/participants", token(t, 2, model.UserTypeViewer)).Code)
}

func TestShowListIsCached(t *testing.T) {
	s, mock, mr := newServer(t)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "banner_url", "status", "scheduled_at",
		"started_at", "ended_at", "total_seats", "created_by", "created_at", "updated_at"}).
		AddRow(1, "Finale", "", nil, model.ShowUpcoming, time.Now(), nil, nil, 1000, 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM shows ORDER BY scheduled_at ASC")).WillReturnRows(rows)

	first := serve(s, http.MethodGet, "/v1/shows", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(s, http.MethodGet, "/v1/shows", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Len(t, mr.Keys(), 1)
}
