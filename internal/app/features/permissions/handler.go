// internal/app/features/permissions/handler.go
package permissions

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/features/errors"
	"github.com/bluestream/channelhub/internal/app/features/shared"
	"github.com/bluestream/channelhub/internal/app/store/permissions"
	"github.com/bluestream/channelhub/internal/app/system/authz"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/app/system/validators"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// Service is the slice of the permission policy this handler consumes.
type Service interface {
	Create(ctx context.Context, grant models.UserPermissions, requestingUser string, isSystemAdmin bool) (models.UserPermissions, error)
	UpdateOne(ctx context.Context, requestingUser, user string, channel primitive.ObjectID, permissions []models.PermissionType, isSystemAdmin bool) (models.UserPermissions, bool, error)
	DeleteOne(ctx context.Context, requestingUser, user string, channel primitive.ObjectID, isSystemAdmin bool) (models.UserPermissions, bool, error)
	GetOne(ctx context.Context, requestingUser string, channel primitive.ObjectID) (models.UserPermissions, bool, error)
	GetChannelPermittedUsers(ctx context.Context, requestingUser string, channel primitive.ObjectID, w paging.Window) ([]models.UserPermissions, error)
	GetChannelPermittedUsersAmount(ctx context.Context, requestingUser string, channel primitive.ObjectID) (int64, error)
	GetUserPermittedChannels(ctx context.Context, requestingUser string, permissions []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error)
	GetUserPermittedChannelsAmount(ctx context.Context, requestingUser string, permissions []models.PermissionType, search string) (int64, error)
}

// Handler is the user-permissions feature handler.
type Handler struct {
	svc           Service
	defaultAmount int
	log           *zap.Logger
}

func NewHandler(svc Service, defaultAmount int, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, defaultAmount: defaultAmount, log: logger}
}

var grantSortFields = []string{"user", "created_at"}
var channelSortFields = []string{"name", "created_at"}

type grantRequest struct {
	User        string                  `json:"user" validate:"required"`
	Channel     string                  `json:"channel" validate:"required"`
	Permissions []models.PermissionType `json:"permissions" validate:"required"`
}

func (h *Handler) parseGrant(r *http.Request) (grantRequest, primitive.ObjectID, error) {
	var req grantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		return grantRequest{}, primitive.NilObjectID, err
	}
	if err := validators.Struct(req); err != nil {
		return grantRequest{}, primitive.NilObjectID, err
	}
	if !validators.IsValidUser(req.User) {
		return grantRequest{}, primitive.NilObjectID, usererrors.PropertyInvalid("User is not a valid identifier")
	}
	channel, err := primitive.ObjectIDFromHex(req.Channel)
	if err != nil {
		return grantRequest{}, primitive.NilObjectID, usererrors.IDInvalid()
	}
	return req, channel, nil
}

// Create handles POST /api/userPermissions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	req, channel, err := h.parseGrant(r)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	created, err := h.svc.Create(r.Context(), models.UserPermissions{
		User:        req.User,
		Channel:     channel,
		Permissions: req.Permissions,
	}, user, authz.IsSystemAdmin(r))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusCreated, created)
}

// UpdateOne handles PUT /api/userPermissions/one.
func (h *Handler) UpdateOne(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	req, channel, err := h.parseGrant(r)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	updated, ok, err := h.svc.UpdateOne(r.Context(), user, req.User, channel, req.Permissions, authz.IsSystemAdmin(r))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if !ok {
		errors.Render(w, h.log, usererrors.PermissionsNotFound())
		return
	}
	shared.JSON(w, http.StatusOK, updated)
}

// DeleteOne handles DELETE /api/userPermissions/one?user=…&channel=…
func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	target := query.Get(r, "user")
	if target == "" {
		errors.Render(w, h.log, usererrors.PropertyInvalid("User is required"))
		return
	}
	channel, err := primitive.ObjectIDFromHex(query.Get(r, "channel"))
	if err != nil {
		errors.Render(w, h.log, usererrors.IDInvalid())
		return
	}

	deleted, ok, err := h.svc.DeleteOne(r.Context(), user, target, channel, authz.IsSystemAdmin(r))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if !ok {
		errors.Render(w, h.log, usererrors.PermissionsNotFound())
		return
	}
	shared.JSON(w, http.StatusOK, deleted)
}

// GetOne handles GET /api/userPermissions/one?channel=…
// Always self-scoped: a caller can only inspect their own grant.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	channel, err := primitive.ObjectIDFromHex(query.Get(r, "channel"))
	if err != nil {
		errors.Render(w, h.log, usererrors.IDInvalid())
		return
	}

	up, ok, err := h.svc.GetOne(r.Context(), user, channel)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	if !ok {
		errors.Render(w, h.log, usererrors.PermissionsNotFound())
		return
	}
	shared.JSON(w, http.StatusOK, up)
}

// GetChannelPermittedUsers handles GET /api/userPermissions/channel/{id}/users.
func (h *Handler) GetChannelPermittedUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	channel, err := shared.PathObjectID(r, "id")
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	ups, err := h.svc.GetChannelPermittedUsers(r.Context(), user, channel, paging.ParseWindow(r, h.defaultAmount, grantSortFields...))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, ups)
}

// GetChannelPermittedUsersAmount handles GET /api/userPermissions/channel/{id}/users/amount.
func (h *Handler) GetChannelPermittedUsersAmount(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	channel, err := shared.PathObjectID(r, "id")
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}

	n, err := h.svc.GetChannelPermittedUsersAmount(r.Context(), user, channel)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, shared.AmountResponse{Amount: n})
}

// GetUserPermittedChannels handles GET /api/userPermissions/my-channels.
// Optional repeated permission=… parameters narrow to grants holding every
// named capability; searchFilter matches against the joined channel.
func (h *Handler) GetUserPermittedChannels(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	chs, err := h.svc.GetUserPermittedChannels(
		r.Context(),
		user,
		permissionParams(r),
		query.Get(r, "searchFilter"),
		paging.ParseWindow(r, h.defaultAmount, channelSortFields...),
	)
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, chs)
}

// GetUserPermittedChannelsAmount handles GET /api/userPermissions/my-channels/amount.
func (h *Handler) GetUserPermittedChannelsAmount(w http.ResponseWriter, r *http.Request) {
	user, _ := authz.RequestingUser(r)

	n, err := h.svc.GetUserPermittedChannelsAmount(r.Context(), user, permissionParams(r), query.Get(r, "searchFilter"))
	if err != nil {
		errors.Render(w, h.log, err)
		return
	}
	shared.JSON(w, http.StatusOK, shared.AmountResponse{Amount: n})
}

func permissionParams(r *http.Request) []models.PermissionType {
	raw := r.URL.Query()["permission"]
	out := make([]models.PermissionType, 0, len(raw))
	for _, s := range raw {
		out = append(out, models.PermissionType(s))
	}
	return out
}
