package authgoogle

import "github.com/go-chi/chi/v5"

// Routes mounts the login flow. These sit outside the signed-in
// middleware: login must be reachable anonymously, and logout is
// harmless without a session.
func Routes(r chi.Router, h *Handler) {
	r.Route("/v1/auth/google", func(r chi.Router) {
		r.Get("/", h.ServeLogin)
		r.Get("/callback", h.ServeCallback)
		r.Post("/logout", h.ServeLogout)
	})
}
