package health

import (
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Routes mounts the health endpoint. It sits outside the session
// middleware so probes never need cookies.
func Routes(r chi.Router, client *mongo.Client, log *zap.Logger) {
	h := &Handler{Client: client, Log: log}
	r.Get("/health", h.ServeHTTP)
}
