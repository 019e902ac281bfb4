package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LunarMoonDev/user-location/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler() *Handler {
	// Validation failures are rejected before any store call, so no
	// database is needed for these paths.
	return NewHandler(nil, zap.NewNop())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Message
}

func TestServeCreate_Validation(t *testing.T) {
	h := newTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"firstName": `},
		{"missing first name", `{"lastName":"cruz","email":"a@b.com"}`},
		{"name too long", `{"firstName":"` + strings.Repeat("a", 26) + `","lastName":"cruz","email":"a@b.com"}`},
		{"bad email", `{"firstName":"juan","lastName":"cruz","email":"nope"}`},
		{"unknown role", `{"firstName":"juan","lastName":"cruz","email":"a@b.com","role":"root"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/v1/users", strings.NewReader(tc.body))
			h.ServeCreate(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400", rec.Code)
			}
		})
	}
}

func TestServeUpdate_BadID(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/v1/users/not-an-id", strings.NewReader(`{}`))
	req = testutil.WithChiURLParam(req, "userID", "not-an-id")
	h.ServeUpdate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "object id") {
		t.Errorf("message = %q", msg)
	}
}

func TestServeDelete_Validation(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/v1/users", strings.NewReader(`{"ids":[]}`))
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids: code = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/v1/users", strings.NewReader(`{"ids":["zzz"]}`))
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: code = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "zzz") {
		t.Errorf("message should name the bad id, got %q", msg)
	}
}
