package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/logout"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	// nil audit logger is a no-op
	return logout.NewHandler(sessionMgr, nil, logger), sessionMgr
}

func deletedCookie(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1 (delete)", c.MaxAge)
			}
			return
		}
	}
	t.Error("expected session cookie to be set for deletion")
}

func TestHandleLogout_NoContent(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, testutil.NewAuthenticatedRequest("POST", "/logout", testutil.VisitorUser()))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	deletedCookie(t, rec)
}

func TestHandleLogout_BrowserRedirectsToLogin(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.VisitorUser())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/login" {
		t.Errorf("Location: got %q, want %q", location, "/login")
	}
	deletedCookie(t, rec)
}

func TestHandleLogout_WithExistingSession(t *testing.T) {
	handler, sessionMgr := newTestHandler(t)

	setup := httptest.NewRequest("POST", "/setup", nil)
	setupRec := httptest.NewRecorder()
	if err := sessionMgr.SignIn(setupRec, setup, auth.SessionUser{ID: "test-user-id", Role: "member"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range setupRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	deletedCookie(t, rec)
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	handler, sessionMgr := newTestHandler(t)
	router := logout.Routes(handler, sessionMgr)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}
