package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ai-spm/internal/domain"
	"ai-spm/internal/policy"
)

type stubSession struct {
	snap domain.Snapshot
}

func (s stubSession) Snapshot() domain.Snapshot { return s.snap }

func guardedRouter(snap domain.Snapshot) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	guard := RequireSession(stubSession{snap: snap}, policy.Default(), "/auth")
	ok := func(c *gin.Context) {
		user, found := GetSessionUser(c)
		if !found || user.ID == "" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	}
	r.GET("/", guard, ok)
	r.GET("/compliance", guard, ok)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireSession_LoadingRendersPlaceholder(t *testing.T) {
	r := guardedRouter(domain.Snapshot{IsLoading: true})
	rec := get(r, "/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRequireSession_AnonymousRedirectsToAuth(t *testing.T) {
	r := guardedRouter(domain.Snapshot{})
	rec := get(r, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth" {
		t.Fatalf("expected redirect to /auth, got %q", loc)
	}
}

func TestRequireSession_RoleGate(t *testing.T) {
	analyst := &domain.User{ID: "u2", Role: domain.RoleAnalyst}
	ciso := &domain.User{ID: "u1", Role: domain.RoleCISO}
	officer := &domain.User{ID: "u3", Role: domain.RoleComplianceOfficer}

	if rec := get(guardedRouter(domain.Snapshot{User: analyst}), "/compliance"); rec.Code != http.StatusForbidden {
		t.Fatalf("analyst on /compliance: expected 403, got %d", rec.Code)
	}
	if rec := get(guardedRouter(domain.Snapshot{User: analyst}), "/"); rec.Code != http.StatusOK {
		t.Fatalf("analyst on /: expected 200, got %d", rec.Code)
	}
	if rec := get(guardedRouter(domain.Snapshot{User: ciso}), "/compliance"); rec.Code != http.StatusOK {
		t.Fatalf("ciso on /compliance: expected 200, got %d", rec.Code)
	}
	if rec := get(guardedRouter(domain.Snapshot{User: officer}), "/compliance"); rec.Code != http.StatusOK {
		t.Fatalf("compliance officer on /compliance: expected 200, got %d", rec.Code)
	}
}
