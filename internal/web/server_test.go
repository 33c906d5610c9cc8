package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"minecraft-rewind/internal/config"
)

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(context.Context) error {
	return s.err
}

func newTestServer(health HealthChecker) *Server {
	cfg := &config.WebConfig{
		ListenAddr:      ":0",
		AvatarTimeout:   time.Second,
		LeaderboardSize: 5,
	}
	return NewServer(cfg, health, nil, nil, nil)
}

func TestHandleHealth_OK(t *testing.T) {
	s := newTestServer(stubHealth{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	s := newTestServer(stubHealth{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"database unavailable"}`, rec.Body.String())
}
