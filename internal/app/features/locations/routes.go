package locations

import (
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(r chi.Router, h *Handler, requireSignedIn, requireFresh func(http.Handler) http.Handler) {
	r.Route("/v1/locations", func(r chi.Router) {
		r.Use(requireSignedIn)
		r.Use(requireFresh)

		r.With(authz.RequireRights(authz.RightGetLocations)).Get("/", h.ServeList)
		r.With(authz.RequireRights(authz.RightManageLocations)).Post("/", h.ServeCreate)
		r.With(authz.RequireRights(authz.RightManageLocations)).Patch("/{locationID}", h.ServeUpdate)
		r.With(authz.RequireRights(authz.RightManageLocations)).Delete("/", h.ServeDelete)
	})
}
