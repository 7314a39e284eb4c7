package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterCheck(RedisCheck(func(ctx context.Context) error { return nil }))

	resp := hc.Check(context.Background())
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
	redis, ok := resp.Checks["redis"]
	if !ok {
		t.Fatal("expected redis check in response")
	}
	if redis.Status != HealthStatusHealthy {
		t.Errorf("expected healthy redis check, got %s", redis.Status)
	}
	if resp.Version != "test" {
		t.Errorf("expected version test, got %s", resp.Version)
	}
}

func TestHealthChecker_CriticalFailure(t *testing.T) {
	hc := NewHealthChecker("")
	hc.RegisterCheck(RedisCheck(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	resp := hc.Check(context.Background())
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", resp.Status)
	}
	if resp.Checks["redis"].Message != "connection refused" {
		t.Errorf("unexpected message: %s", resp.Checks["redis"].Message)
	}
}

func TestHealthChecker_NonCriticalFailure(t *testing.T) {
	hc := NewHealthChecker("")
	hc.RegisterCheck(&HealthCheck{
		Name:      "aux",
		CheckFunc: func(ctx context.Context) error { return errors.New("slow") },
		Critical:  false,
	})

	resp := hc.Check(context.Background())
	if resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	hc := NewHealthChecker("")
	hc.RegisterCheck(&HealthCheck{
		Name: "stuck",
		CheckFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		Timeout:  10 * time.Millisecond,
		Critical: true,
	})

	resp := hc.Check(context.Background())
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("expected unhealthy on timeout, got %s", resp.Status)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	hc := NewHealthChecker("")
	hc.RegisterCheck(RedisCheck(func(ctx context.Context) error {
		return errors.New("down")
	}))
	srv := NewServer(0, hc)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("expected 503 when unhealthy, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleLive(rec, httptest.NewRequest("GET", "/health/live", nil))
	if rec.Code != 200 {
		t.Errorf("expected 200 from liveness, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != 503 {
		t.Errorf("expected 503 from readiness when unhealthy, got %d", rec.Code)
	}
}
