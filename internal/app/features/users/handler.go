package users

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LunarMoonDev/user-location/internal/app/features/errors"
	locationstore "github.com/LunarMoonDev/user-location/internal/app/store/locations"
	userstore "github.com/LunarMoonDev/user-location/internal/app/store/users"
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

func (h *Handler) store() *userstore.Store {
	return userstore.New(h.DB, h.Log)
}

type locationRef struct {
	City  string `json:"city"`
	State string `json:"state"`
}

func (l *locationRef) key() *locationstore.Key {
	if l == nil {
		return nil
	}
	return &locationstore.Key{City: l.City, State: l.State}
}

type createRequest struct {
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Location  *locationRef `json:"location"`
}

func (req createRequest) validate() error {
	if err := validators.PersonName("firstName", req.FirstName); err != nil {
		return err
	}
	if err := validators.PersonName("lastName", req.LastName); err != nil {
		return err
	}
	if err := validators.Email(req.Email); err != nil {
		return err
	}
	return validators.Role(req.Role)
}

// ServeCreate handles POST /v1/users.
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

	// Long tier: the create may run a multi-collection transaction.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := h.store().Create(ctx, models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	}, req.Location.key())
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}

	errors.WriteJSON(w, http.StatusCreated, u)
}

// ServeList handles GET /v1/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := userstore.Filter{
		FirstName: query.Get(r, "firstName"),
		LastName:  query.Get(r, "lastName"),
		Email:     query.Get(r, "email"),
		Role:      query.Get(r, "role"),
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
	FirstName  *string      `json:"firstName"`
	LastName   *string      `json:"lastName"`
	Email      *string      `json:"email"`
	Role       *string      `json:"role"`
	Location   *locationRef `json:"location"`
	IsDisabled *bool        `json:"isDisabled"`
}

func (req updateRequest) validate() error {
	if req.FirstName != nil {
		if err := validators.PersonName("firstName", *req.FirstName); err != nil {
			return err
		}
	}
	if req.LastName != nil {
		if err := validators.PersonName("lastName", *req.LastName); err != nil {
			return err
		}
	}
	if req.Email != nil {
		if err := validators.Email(*req.Email); err != nil {
			return err
		}
	}
	if req.Role != nil {
		if err := validators.Role(*req.Role); err != nil {
			return err
		}
	}
	return nil
}

// ServeUpdate handles PATCH /v1/users/{userID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.resp.Respond(w, r, apperr.Validation("userID must be a valid object id"))
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := h.store().Update(ctx, id, userstore.Patch{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       req.Role,
		Location:   req.Location.key(),
		IsDisabled: req.IsDisabled,
	})
	if err != nil {
		h.resp.Respond(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, u)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// ServeDelete handles DELETE /v1/users: batch soft-deletion.
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
