package refresh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	user *models.User

	updatedAccess string
	updatedExpire int64
	updateCalls   int
}

func (f *fakeStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.user == nil {
		return nil, errors.New("not found")
	}
	return f.user, nil
}

func (f *fakeStore) UpdateTokens(ctx context.Context, provider, subject, email, accessToken string, expireDate int64) error {
	f.updateCalls++
	f.updatedAccess = accessToken
	f.updatedExpire = expireDate
	return nil
}

type fakeExchanger struct {
	accessToken string
	expireDate  int64
	err         error
	calls       int
}

func (f *fakeExchanger) Exchange(ctx context.Context, refreshToken string) (string, int64, error) {
	f.calls++
	return f.accessToken, f.expireDate, f.err
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestShouldRefresh(t *testing.T) {
	now := fixedNow()
	cases := []struct {
		name       string
		expireDate int64
		want       bool
	}{
		{"already expired", now.Add(-time.Hour).Unix(), true},
		{"expires this instant", now.Unix(), true},
		{"inside the skew window", now.Add(299 * time.Second).Unix(), true},
		{"exactly at the skew boundary", now.Add(300 * time.Second).Unix(), true},
		{"just beyond the boundary", now.Add(301 * time.Second).Unix(), false},
		{"comfortably fresh", now.Add(time.Hour).Unix(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRefresh(tc.expireDate, now); got != tc.want {
				t.Errorf("shouldRefresh = %v, want %v", got, tc.want)
			}
		})
	}
}

func serve(m *Middleware, user *auth.SessionUser) (*httptest.ResponseRecorder, bool) {
	var reached bool
	h := m.RequireFresh(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/users", nil)
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func sessionFor(u *models.User) *auth.SessionUser {
	return &auth.SessionUser{ID: u.ID.Hex(), Email: u.Email, Role: u.Role}
}

func TestRequireFresh_Anonymous(t *testing.T) {
	m := New(&fakeStore{}, &fakeExchanger{}, zap.NewNop())
	rec, reached := serve(m, nil)
	if rec.Code != http.StatusUnauthorized || reached {
		t.Errorf("anonymous: code=%d reached=%v, want 401 and not reached", rec.Code, reached)
	}
}

func TestRequireFresh_NoAccountPassesThrough(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Email: "a@b.com", Role: "admin"}
	ex := &fakeExchanger{}
	m := New(&fakeStore{user: u}, ex, zap.NewNop())
	m.SetNow(fixedNow)

	rec, reached := serve(m, sessionFor(u))
	if rec.Code != http.StatusOK || !reached {
		t.Errorf("code=%d reached=%v, want 200 and reached", rec.Code, reached)
	}
	if ex.calls != 0 {
		t.Errorf("exchanger called %d times for account-less user", ex.calls)
	}
}

func TestRequireFresh_FreshTokenPassesThrough(t *testing.T) {
	u := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "a@b.com",
		Role:  "user",
		Account: &models.Account{
			Provider:   "google",
			Subject:    "sub-1",
			ExpireDate: fixedNow().Add(time.Hour).Unix(),
		},
	}
	store := &fakeStore{user: u}
	ex := &fakeExchanger{}
	m := New(store, ex, zap.NewNop())
	m.SetNow(fixedNow)

	rec, reached := serve(m, sessionFor(u))
	if rec.Code != http.StatusOK || !reached {
		t.Errorf("code=%d reached=%v, want 200 and reached", rec.Code, reached)
	}
	if ex.calls != 0 || store.updateCalls != 0 {
		t.Errorf("fresh token triggered exchange=%d update=%d", ex.calls, store.updateCalls)
	}
}

func TestRequireFresh_StaleTokenRefreshes(t *testing.T) {
	u := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "a@b.com",
		Role:  "user",
		Account: &models.Account{
			Provider:     "google",
			Subject:      "sub-1",
			RefreshToken: "rt-1",
			ExpireDate:   fixedNow().Add(30 * time.Second).Unix(),
		},
	}
	store := &fakeStore{user: u}
	ex := &fakeExchanger{accessToken: "new-at", expireDate: fixedNow().Add(time.Hour).Unix()}
	m := New(store, ex, zap.NewNop())
	m.SetNow(fixedNow)

	rec, reached := serve(m, sessionFor(u))
	if rec.Code != http.StatusOK || !reached {
		t.Fatalf("code=%d reached=%v, want 200 and reached", rec.Code, reached)
	}
	if store.updateCalls != 1 || store.updatedAccess != "new-at" {
		t.Errorf("update calls=%d access=%q, want 1 call with new-at", store.updateCalls, store.updatedAccess)
	}
	if store.updatedExpire != ex.expireDate {
		t.Errorf("persisted expiry %d, want %d", store.updatedExpire, ex.expireDate)
	}
}

func TestRequireFresh_ExchangeFailureRejects(t *testing.T) {
	u := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "a@b.com",
		Role:  "user",
		Account: &models.Account{
			Provider:     "google",
			Subject:      "sub-1",
			RefreshToken: "rt-1",
			ExpireDate:   fixedNow().Add(-time.Minute).Unix(),
		},
	}
	store := &fakeStore{user: u}
	ex := &fakeExchanger{err: errors.New("invalid_grant")}
	m := New(store, ex, zap.NewNop())
	m.SetNow(fixedNow)

	rec, reached := serve(m, sessionFor(u))
	if rec.Code != http.StatusUnauthorized || reached {
		t.Errorf("code=%d reached=%v, want 401 and not reached", rec.Code, reached)
	}
	if store.updateCalls != 0 {
		t.Errorf("tokens persisted after failed exchange (%d calls)", store.updateCalls)
	}
}

func TestRequireFresh_UnknownUserRejects(t *testing.T) {
	m := New(&fakeStore{}, &fakeExchanger{}, zap.NewNop())
	su := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Email: "gone@b.com", Role: "user"}
	rec, reached := serve(m, su)
	if rec.Code != http.StatusUnauthorized || reached {
		t.Errorf("code=%d reached=%v, want 401 and not reached", rec.Code, reached)
	}
}
