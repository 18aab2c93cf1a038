package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.ErrorResponse {
	t.Helper()
	var body uierrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestErrorLogger_ServerErrorHidesCause(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.LogServerError(rec, httptest.NewRequest("GET", "/x", nil), "db failed", errors.New("secret dsn"), "Something went wrong.")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decode(t, rec)
	if body.Error != uierrors.CodeInternal || body.Message != "Something went wrong." || body.Retry {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestErrorLogger_UnavailableSetsRetry(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.LogUnavailable(rec, httptest.NewRequest("POST", "/x", nil), "timeout", errors.New("deadline"), "Try again.")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := decode(t, rec); !body.Retry || body.Error != uierrors.CodeUnavailable {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestErrorLogger_BadRequest(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.LogBadRequest(rec, httptest.NewRequest("POST", "/x", nil), "parse failed", errors.New("eof"), "Invalid JSON.")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := decode(t, rec); body.Error != uierrors.CodeBadRequest {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandler_Forbidden(t *testing.T) {
	h := uierrors.NewHandler()
	rec := httptest.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/forbidden", testutil.VisitorUser())
	h.Forbidden(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d", rec.Code)
	}
	var body struct {
		Error      string `json:"error"`
		IsLoggedIn bool   `json:"is_logged_in"`
		Role       string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != uierrors.CodeForbidden || !body.IsLoggedIn || body.Role != "visitor" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandler_Unauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.NewHandler().Unauthorized(rec, httptest.NewRequest("GET", "/unauthorized", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.RateLimited(rec, "Slow down.")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := decode(t, rec); !body.Retry {
		t.Error("expected retry=true")
	}
}
