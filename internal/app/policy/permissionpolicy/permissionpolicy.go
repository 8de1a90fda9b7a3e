// internal/app/policy/permissionpolicy/permissionpolicy.go
package permissionpolicy

import (
	"context"

	"github.com/bluestream/channelhub/internal/app/store/permissions"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// GrantStore is the slice of the Mongo permission store this policy consumes.
type GrantStore interface {
	Create(ctx context.Context, up models.UserPermissions) (models.UserPermissions, error)
	UpdateOne(ctx context.Context, user string, channel primitive.ObjectID, permissions []models.PermissionType) (models.UserPermissions, bool, error)
	DeleteOne(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error)
	GetOne(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error)
	GetMany(ctx context.Context, f permissionstore.Filter, w paging.Window) ([]models.UserPermissions, error)
	GetAmount(ctx context.Context, f permissionstore.Filter) (int64, error)
	GetUserPermittedChannels(ctx context.Context, user string, permissions []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error)
	GetUserPermittedChannelsAmount(ctx context.Context, user string, permissions []models.PermissionType, search string) (int64, error)
}

// ChannelGetter looks up the channel a grant decision refers to.
type ChannelGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error)
}

// Service gates creation, modification, deletion, and inspection of per-user
// permission grants, and computes the admin predicate the channel policy
// depends on.
type Service struct {
	grants   GrantStore
	channels ChannelGetter
}

func New(grants GrantStore, channels ChannelGetter) *Service {
	return &Service{grants: grants, channels: channels}
}

// IsUserAdmin reports whether a grant exists for (user, channel) and contains
// ADMIN. Ownership is a separate predicate: the owner of a profile channel
// has no grant record, so this alone returns false for them.
func (s *Service) IsUserAdmin(ctx context.Context, user string, channel primitive.ObjectID) (bool, error) {
	up, ok, err := s.grants.GetOne(ctx, user, channel)
	if err != nil {
		return false, err
	}
	return ok && up.Has(models.PermissionAdmin), nil
}

// Create adds a grant after resolving, concurrently: whether the requester is
// an admin of the target channel, whether the channel exists, and whether a
// grant already exists for the (user, channel) pair. All three lookups
// complete before any decision is made.
func (s *Service) Create(ctx context.Context, grant models.UserPermissions, requestingUser string, isSystemAdmin bool) (models.UserPermissions, error) {
	if err := validatePermissions(grant.Permissions); err != nil {
		return models.UserPermissions{}, err
	}

	var (
		isAdmin   bool
		ch        models.Channel
		channelOK bool
		exists    bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		isAdmin, err = s.IsUserAdmin(gctx, requestingUser, grant.Channel)
		return err
	})
	g.Go(func() error {
		var err error
		ch, channelOK, err = s.channels.GetByID(gctx, grant.Channel)
		return err
	})
	g.Go(func() error {
		var err error
		_, exists, err = s.grants.GetOne(gctx, grant.User, grant.Channel)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.UserPermissions{}, err
	}

	if !channelOK {
		return models.UserPermissions{}, usererrors.ChannelNotFound()
	}
	if exists {
		return models.UserPermissions{}, usererrors.PermissionsAlreadyExist()
	}
	if !isSystemAdmin && !isAdmin && requestingUser != ch.User {
		return models.UserPermissions{}, usererrors.UnauthorizedUser()
	}
	// Profile channels admit only the owner granting to themselves.
	if ch.IsProfile && !(requestingUser == ch.User && grant.User == ch.User) {
		return models.UserPermissions{}, usererrors.ProfileEditingForbidden()
	}

	return s.grants.Create(ctx, grant)
}

// UpdateOne replaces a grant's permission set wholesale. Only the admin
// predicate or the system-admin flag authorizes an update; owner identity is
// deliberately not consulted here, unlike create and delete.
// The boolean is false when no grant exists for the pair.
func (s *Service) UpdateOne(ctx context.Context, requestingUser, user string, channel primitive.ObjectID, permissions []models.PermissionType, isSystemAdmin bool) (models.UserPermissions, bool, error) {
	if err := validatePermissions(permissions); err != nil {
		return models.UserPermissions{}, false, err
	}

	isAdmin, ch, channelOK, err := s.resolveAdminAndChannel(ctx, requestingUser, channel)
	if err != nil {
		return models.UserPermissions{}, false, err
	}

	if !channelOK {
		return models.UserPermissions{}, false, usererrors.ChannelNotFound()
	}
	if ch.IsProfile {
		return models.UserPermissions{}, false, usererrors.ProfileEditingForbidden()
	}
	if !isAdmin && !isSystemAdmin {
		return models.UserPermissions{}, false, usererrors.UnauthorizedUser()
	}

	return s.grants.UpdateOne(ctx, user, channel, permissions)
}

// DeleteOne removes a grant. The owner's grant can never be removed this way;
// an unresolvable channel is treated the same, conservatively, rather than
// deleting against ambiguous state. The boolean is false when no grant
// existed for the pair.
func (s *Service) DeleteOne(ctx context.Context, requestingUser, user string, channel primitive.ObjectID, isSystemAdmin bool) (models.UserPermissions, bool, error) {
	isAdmin, ch, channelOK, err := s.resolveAdminAndChannel(ctx, requestingUser, channel)
	if err != nil {
		return models.UserPermissions{}, false, err
	}

	if !channelOK {
		return models.UserPermissions{}, false, usererrors.OwnerPermissionsNotRemovable()
	}
	if ch.IsProfile {
		return models.UserPermissions{}, false, usererrors.ProfileEditingForbidden()
	}
	if !isAdmin && !isSystemAdmin && requestingUser != ch.User {
		return models.UserPermissions{}, false, usererrors.UnauthorizedUser()
	}
	if user == ch.User {
		return models.UserPermissions{}, false, usererrors.OwnerPermissionsNotRemovable()
	}

	return s.grants.DeleteOne(ctx, user, channel)
}

// GetOne returns the caller's own grant for a channel. A user may always see
// their own grant, so there is no gate. The boolean is false when the caller
// holds no grant.
func (s *Service) GetOne(ctx context.Context, requestingUser string, channel primitive.ObjectID) (models.UserPermissions, bool, error) {
	return s.grants.GetOne(ctx, requestingUser, channel)
}

// GetChannelPermittedUsers lists every grant on a channel. Admin-gated.
func (s *Service) GetChannelPermittedUsers(ctx context.Context, requestingUser string, channel primitive.ObjectID, w paging.Window) ([]models.UserPermissions, error) {
	if err := s.requireAdmin(ctx, requestingUser, channel); err != nil {
		return nil, err
	}
	return s.grants.GetMany(ctx, permissionstore.Filter{Channel: channel}, w)
}

// GetChannelPermittedUsersAmount counts the grants on a channel. Admin-gated.
func (s *Service) GetChannelPermittedUsersAmount(ctx context.Context, requestingUser string, channel primitive.ObjectID) (int64, error) {
	if err := s.requireAdmin(ctx, requestingUser, channel); err != nil {
		return 0, err
	}
	return s.grants.GetAmount(ctx, permissionstore.Filter{Channel: channel})
}

// GetUserPermittedChannels lists the channels the caller has access to,
// narrowed by required capability tags and a free-text match over the joined
// channel. Ungated: it is self-scoped by construction.
func (s *Service) GetUserPermittedChannels(ctx context.Context, requestingUser string, permissions []models.PermissionType, search string, w paging.Window) ([]permissionstore.PermittedChannel, error) {
	if err := validateFilterPermissions(permissions); err != nil {
		return nil, err
	}
	return s.grants.GetUserPermittedChannels(ctx, requestingUser, permissions, search, w)
}

// GetUserPermittedChannelsAmount counts what GetUserPermittedChannels lists.
func (s *Service) GetUserPermittedChannelsAmount(ctx context.Context, requestingUser string, permissions []models.PermissionType, search string) (int64, error) {
	if err := validateFilterPermissions(permissions); err != nil {
		return 0, err
	}
	return s.grants.GetUserPermittedChannelsAmount(ctx, requestingUser, permissions, search)
}

// resolveAdminAndChannel fans out the admin check and the channel lookup,
// awaiting both before any decision.
func (s *Service) resolveAdminAndChannel(ctx context.Context, requestingUser string, channel primitive.ObjectID) (isAdmin bool, ch models.Channel, channelOK bool, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		isAdmin, err = s.IsUserAdmin(gctx, requestingUser, channel)
		return err
	})
	g.Go(func() error {
		var err error
		ch, channelOK, err = s.channels.GetByID(gctx, channel)
		return err
	})
	err = g.Wait()
	return isAdmin, ch, channelOK, err
}

func (s *Service) requireAdmin(ctx context.Context, requestingUser string, channel primitive.ObjectID) error {
	isAdmin, err := s.IsUserAdmin(ctx, requestingUser, channel)
	if err != nil {
		return err
	}
	if !isAdmin {
		return usererrors.UnauthorizedUser()
	}
	return nil
}

func validatePermissions(permissions []models.PermissionType) error {
	if len(permissions) == 0 {
		return usererrors.PropertyInvalid("Permissions must not be empty")
	}
	return validateFilterPermissions(permissions)
}

func validateFilterPermissions(permissions []models.PermissionType) error {
	for _, p := range permissions {
		if !p.Valid() {
			return usererrors.PropertyInvalid("Unknown permission: " + string(p))
		}
	}
	return nil
}
