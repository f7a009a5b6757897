package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func TestHealth(t *testing.T) {
	h := New(&MockUserService{}, &MockCep{}, &MockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		h := New(&MockUserService{}, &MockCep{}, &MockHealthChecker{})

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()
		h.Ready(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("database down", func(t *testing.T) {
		checker := &MockHealthChecker{
			PingFunc: func(ctx context.Context) error { return errors.New("connection refused") },
		}
		h := New(&MockUserService{}, &MockCep{}, checker)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()
		h.Ready(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
