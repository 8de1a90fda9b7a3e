// internal/app/features/channels/handler.go
package channels

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/features/errors"
	"github.com/bluestream/channelhub/internal/app/features/shared"
	"github.com/bluestream/channelhub/internal/app/store/channels"
	"github.com/bluestream/channelhub/internal/app/system/authz"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/app/system/validators"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// Service is the slice of the channel policy this handler consumes.
type Service interface {
	Create(ctx context.Context, ch models.Channel, requestingUser string) (models.Channel, error)
	CreateProfile(ctx context.Context, owner, name, description string) (models.Channel, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, u channelstore.Update, requestingUser string, isSystemAdmin bool) (models.Channel, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID, requestingUser string, isSystemAdmin bool) (models.Channel, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error)
	GetMany(ctx context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error)
	GetAmount(ctx context.Context, f channelstore.Filter) (int64, error)
	GetSearched(ctx context.Context, search string, w paging.Window) ([]models.Channel, error)
	GetSearchedAmount(ctx context.Context, search string) (int64, error)
}

// Handler is the channels feature handler.
type Handler struct {
	svc           Service
	bounds        validators.Bounds
	defaultAmount int
	log           *zap.Logger
}

func NewHandler(svc Service, bounds validators.Bounds, defaultAmount int, logger *zap.Logger) *Handler {
	return &Handler{
		svc:           svc,
		bounds:        bounds,
		defaultAmount: defaultAmount,
		log:           logger,
	}
}

var sortFields = []string{"name", "created_at"}

type createRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create handles POST /api/channel.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if err := validators.Struct(req); err != nil {
		errors.Render(w, h.log, err)
		return
	}

	name := validators.SanitizeText(req.Name)
	description := validators.SanitizeText(req.Description)
	if err := h.bounds.CheckName(name); err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if err := h.bounds.CheckDescription(description); err != nil {
		errors.Render(w, h.log, err)
		return
	}

	created, err := h.svc.Create(r.Context(), models.Channel{
		Name:        name,
		Description: description,
	}, user)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusCreated, created)
}

// CreateProfile handles POST /api/channel/profile: the signed-in user
// provisions their own profile channel.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if err := validators.Struct(req); err != nil {
		errors.Render(w, h.log, err)
		return
	}

	name := validators.SanitizeText(req.Name)
	description := validators.SanitizeText(req.Description)
	if err := h.bounds.CheckName(name); err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if err := h.bounds.CheckDescription(description); err != nil {
		errors.Render(w, h.log, err)
		return
	}

	created, err := h.svc.CreateProfile(r.Context(), user, name, description)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/channel/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	id, err := shared.PathObjectID(r, "id")
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if req.Name == nil && req.Description == nil {
		errors.Render(w, h.log, usererrors.PropertyInvalid("No fields to update"))
		return
	}

	var u channelstore.Update
	if req.Name != nil {
		name := validators.SanitizeText(*req.Name)
		if err := h.bounds.CheckName(name); err != nil {
			errors.Render(w, h.log, err)
			return
		}
		u.Name = &name
	}
	if req.Description != nil {
		description := validators.SanitizeText(*req.Description)
		if err := h.bounds.CheckDescription(description); err != nil {
			errors.Render(w, h.log, err)
			return
		}
		u.Description = &description
	}

	updated, err := h.svc.UpdateByID(r.Context(), id, u, user, authz.IsSystemAdmin(r))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/channel/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	id, err := shared.PathObjectID(r, "id")
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	deleted, err := h.svc.DeleteByID(r.Context(), id, user, authz.IsSystemAdmin(r))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, deleted)
}

// GetByID handles GET /api/channel/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathObjectID(r, "id")
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	ch, ok, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if !ok {
		errors.Render(w, h.log, usererrors.ChannelNotFound())
		return
	}
	shared.JSON(w, http.StatusOK, ch)
}

// GetByIDs handles GET /api/channel/ids?id=…&id=…
// Missing ids are silently absent from the result.
func (h *Handler) GetByIDs(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["id"]
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			errors.Render(w, h.log, usererrors.IDInvalid())
			return
		}
		ids = append(ids, id)
	}

	chs, err := h.svc.GetByIDs(r.Context(), ids)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, chs)
}

// GetMany handles GET /api/channel/many.
func (h *Handler) GetMany(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	chs, err := h.svc.GetMany(r.Context(), f, paging.ParseWindow(r, h.defaultAmount, sortFields...))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, chs)
}

// GetAmount handles GET /api/channel/amount.
func (h *Handler) GetAmount(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	n, err := h.svc.GetAmount(r.Context(), f)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, shared.AmountResponse{Amount: n})
}

// GetSearched handles GET /api/channel/search?searchFilter=…
func (h *Handler) GetSearched(w http.ResponseWriter, r *http.Request) {
	chs, err := h.svc.GetSearched(r.Context(), query.Get(r, "searchFilter"), paging.ParseWindow(r, h.defaultAmount, sortFields...))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, chs)
}

// GetSearchedAmount handles GET /api/channel/search/amount?searchFilter=…
func (h *Handler) GetSearchedAmount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.GetSearchedAmount(r.Context(), query.Get(r, "searchFilter"))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, shared.AmountResponse{Amount: n})
}

func filterFromQuery(r *http.Request) (channelstore.Filter, error) {
	f := channelstore.Filter{
		User: query.Get(r, "user"),
		Name: query.Get(r, "name"),
	}
	switch query.Get(r, "isProfile") {
	case "":
	case "true":
		t := true
		f.IsProfile = &t
	case "false":
		fa := false
		f.IsProfile = &fa
	default:
		return channelstore.Filter{}, usererrors.PropertyInvalid("isProfile must be true or false")
	}
	return f, nil
}
