package health

import (
	"context"
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/features/errors"
	"github.com/LunarMoonDev/user-location/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// ServeHTTP reports liveness plus database reachability. Load
// balancers poll this, so the ping gets the tightest timeout tier.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if h.Client == nil {
		errors.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "degraded",
			"database": "not configured",
		})
		return
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("health check ping failed", zap.Error(err))
		errors.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	errors.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": "connected",
	})
}
