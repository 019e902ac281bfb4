package locations

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LunarMoonDev/user-location/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler() *Handler {
	return NewHandler(nil, zap.NewNop())
}

func TestServeCreate_Validation(t *testing.T) {
	h := newTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"city": `},
		{"missing city", `{"state":"Cebu Province","pop":5000,"loc":[14.6,121.0]}`},
		{"pop below range", `{"city":"Cebu","state":"Cebu Province","pop":999,"loc":[14.6,121.0]}`},
		{"pop above range", `{"city":"Cebu","state":"Cebu Province","pop":10000,"loc":[14.6,121.0]}`},
		{"coordinate out of range", `{"city":"Cebu","state":"Cebu Province","pop":5000,"loc":[181,0]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/v1/locations", strings.NewReader(tc.body))
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
	req := httptest.NewRequest("PATCH", "/v1/locations/xyz", strings.NewReader(`{}`))
	req = testutil.WithChiURLParam(req, "locationID", "xyz")
	h.ServeUpdate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestServeDelete_Validation(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/v1/locations", strings.NewReader(`{"ids":[]}`))
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids: code = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/v1/locations", strings.NewReader(`{"ids":["nope"]}`))
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: code = %d, want 400", rec.Code)
	}
}
