package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser returns a session user with the admin role.
func AdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:        primitive.NewObjectID().Hex(),
		FirstName: "ada",
		LastName:  "admin",
		Email:     "ada.admin@example.com",
		Role:      "admin",
	}
}

// RegularUser returns a session user with the plain user role.
func RegularUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:        primitive.NewObjectID().Hex(),
		FirstName: "uma",
		LastName:  "user",
		Email:     "uma.user@example.com",
		Role:      "user",
	}
}

// WithUser attaches a session user to the request, simulating a
// request that passed the session middleware.
func WithUser(r *http.Request, u *auth.SessionUser) *http.Request {
	return auth.WithTestUser(r, u)
}

// NewAuthenticatedRequest builds an httptest request already carrying
// the given session user.
func NewAuthenticatedRequest(method, target string, body io.Reader, u *auth.SessionUser) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return WithUser(r, u)
}

// WithChiURLParam injects a chi route parameter so a handler can be
// exercised without mounting a full router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
