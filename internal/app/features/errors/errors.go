// Package errors renders application errors as the JSON envelope the
// API speaks: {"code": <status>, "message": <text>}.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/system/apperr"
	"github.com/LunarMoonDev/user-location/internal/app/system/requestid"
	"go.uber.org/zap"
)

type Responder struct {
	log *zap.Logger
}

func NewResponder(log *zap.Logger) *Responder {
	return &Responder{log: log}
}

// Respond writes err as a JSON error response. Client errors pass
// their message through; anything unclassified becomes an opaque 500
// and the detail goes to the log, keyed by request id.
func (e *Responder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	message := "Something went wrong"

	var ae *apperr.Error
	if stderrors.As(err, &ae) && status < http.StatusInternalServerError {
		message = ae.Message
	}

	if status >= http.StatusInternalServerError {
		e.log.Error("request failed",
			zap.String("request_id", requestid.FromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	WriteJSON(w, status, map[string]any{
		"code":    status,
		"message": message,
	})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
