package locations

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/features/errors"
	locationstore "github.com/LunarMoonDev/user-location/internal/app/store/locations"
	"github.com/LunarMoonDev/user-location/internal/app/system/apperr"
	"github.com/LunarMoonDev/user-location/internal/app/system/paging"
	"github.com/LunarMoonDev/user-location/internal/app/system/timeouts"
	"github.com/LunarMoonDev/user-location/internal/app/system/validators"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB   *mongo.Database
	Log  *zap.Logger
	resp *errors.Responder
}

func NewHandler(db *mongo.Database, log *zap.Logger) *Handler {
	return &Handler{DB: db, Log: log, resp: errors.NewResponder(log)}
}

func (h *Handler) store() *locationstore.Store {
	return locationstore.New(h.DB)
}

type createRequest struct {
	City  string     `json:"city"`
	State string     `json:"state"`
	Pop   int        `json:"pop"`
	Loc   [2]float64 `json:"loc"`
}

func (req createRequest) validate() error {
	if err := validators.PlaceName("city", req.City); err != nil {
		return err
	}
	if err := validators.PlaceName("state", req.State); err != nil {
		return err
	}
	if err := validators.Pop(req.Pop); err != nil {
		return err
	}
	return validators.Coords(req.Loc)
}

// ServeCreate handles POST /v1/locations.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.resp.Respond(w, r, apperr.Validation("invalid JSON payload"))
		return
	}
	if err := req.validate(); err != nil {
		h.resp.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	l, err := h.store().Create(ctx, models.Location{
		City:  req.City,
		State: req.State,
		Pop:   req.Pop,
		Loc:   req.Loc,
	})
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusCreated, l)
}

// ServeList handles GET /v1/locations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := locationstore.Filter{
		City:  query.Get(r, "city"),
		State: query.Get(r, "state"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.store().Query(ctx, filter, paging.Parse(r, "created_at"))
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, page)
}

type updateRequest struct {
	City  *string     `json:"city"`
	State *string     `json:"state"`
	Pop   *int        `json:"pop"`
	Loc   *[2]float64 `json:"loc"`
}

func (req updateRequest) validate() error {
	if req.City != nil {
		if err := validators.PlaceName("city", *req.City); err != nil {
			return err
		}
	}
	if req.State != nil {
		if err := validators.PlaceName("state", *req.State); err != nil {
			return err
		}
	}
	if req.Pop != nil {
		if err := validators.Pop(*req.Pop); err != nil {
			return err
		}
	}
	if req.Loc != nil {
		return validators.Coords(*req.Loc)
	}
	return nil
}

// ServeUpdate handles PATCH /v1/locations/{locationID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "locationID"))
	if err != nil {
		h.resp.Respond(w, r, apperr.Validation("locationID must be a valid object id"))
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.resp.Respond(w, r, apperr.Validation("invalid JSON payload"))
		return
	}
	if err := req.validate(); err != nil {
		h.resp.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	l, err := h.store().Update(ctx, id, locationstore.Patch{
		City:  req.City,
		State: req.State,
		Pop:   req.Pop,
		Loc:   req.Loc,
	})
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, l)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// ServeDelete handles DELETE /v1/locations. Locations with residents
// are silently skipped; the count reflects what was actually removed.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.resp.Respond(w, r, apperr.Validation("invalid JSON payload"))
		return
	}
	if len(req.IDs) == 0 {
		h.resp.Respond(w, r, apperr.Validation("ids must not be empty"))
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.resp.Respond(w, r, apperr.Validationf("ids contains an invalid object id: %q", raw))
			return
		}
		ids = append(ids, id)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	count, err := h.store().Delete(ctx, ids)
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, map[string]any{"count": count})
}
