// internal/app/system/authz/authz.go
package authz

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the current user's role (lowercased), Mongo ObjectID,
// and a found flag. ok=true means a valid, authenticated user with a
// well-formed ObjectID; anything else fails closed.
func UserCtx(r *http.Request) (role string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), userID, true
}

// HasRights reports whether the current request's user holds every one
// of the given rights. Anonymous requests have no rights.
func HasRights(r *http.Request, rights ...string) bool {
	role, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	return roleHas(role, rights...)
}

// RequireRights gates a route on the rights table: 401 for anonymous
// requests, 403 when the role lacks any required right.
func RequireRights(rights ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _, ok := UserCtx(r)
			if !ok {
				auth.WriteUnauthenticated(w)
				return
			}
			if !roleHas(role, rights...) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusForbidden,
					"message": "Forbidden",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
