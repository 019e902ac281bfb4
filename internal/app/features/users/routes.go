package users

import (
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the users API. The enclosing router already ran the
// session middleware; this adds the signed-in, token-freshness, and
// rights gates.
func Routes(r chi.Router, h *Handler, requireSignedIn, requireFresh func(http.Handler) http.Handler) {
	r.Route("/v1/users", func(r chi.Router) {
		r.Use(requireSignedIn)
		r.Use(requireFresh)

		r.With(authz.RequireRights(authz.RightGetUsers)).Get("/", h.ServeList)
		r.With(authz.RequireRights(authz.RightManageUsers)).Post("/", h.ServeCreate)
		r.With(authz.RequireRights(authz.RightManageUsers)).Patch("/{userID}", h.ServeUpdate)
		r.With(authz.RequireRights(authz.RightManageUsers)).Delete("/", h.ServeDelete)
	})
}
