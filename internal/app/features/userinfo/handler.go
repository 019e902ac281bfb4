// Package userinfo exposes the session's current user so the frontend
// can render signed-in state without a round trip to the users API.
package userinfo

import (
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/features/errors"
	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
)

type response struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
}

// ServeHTTP answers for anonymous callers too; the frontend uses the
// isAuthenticated flag to decide whether to show the login button.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		errors.WriteJSON(w, http.StatusOK, response{IsAuthenticated: false})
		return
	}

	errors.WriteJSON(w, http.StatusOK, response{
		IsAuthenticated: true,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
	})
}
