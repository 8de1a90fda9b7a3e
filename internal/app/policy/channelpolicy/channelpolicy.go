// internal/app/policy/channelpolicy/channelpolicy.go
package channelpolicy

import (
	"context"

	"github.com/bluestream/channelhub/internal/app/store/channels"
	"github.com/bluestream/channelhub/internal/app/system/broker"
	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChannelStore is the slice of the Mongo channel store this policy consumes.
type ChannelStore interface {
	Create(ctx context.Context, ch models.Channel) (models.Channel, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, u channelstore.Update) (models.Channel, bool, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error)
	GetMany(ctx context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error)
	GetAmount(ctx context.Context, f channelstore.Filter) (int64, error)
	GetSearched(ctx context.Context, search string, w paging.Window) ([]models.Channel, error)
	GetSearchedAmount(ctx context.Context, search string) (int64, error)
	CountOthersWithName(ctx context.Context, name string, exclude primitive.ObjectID) (int64, error)
}

// GrantStore creates the implicit owner grant at channel creation.
type GrantStore interface {
	Create(ctx context.Context, up models.UserPermissions) (models.UserPermissions, error)
}

// AdminChecker answers "does this user hold an ADMIN grant on this channel".
// Implemented by the permission policy; ownership is checked separately.
type AdminChecker interface {
	IsUserAdmin(ctx context.Context, user string, channel primitive.ObjectID) (bool, error)
}

// Service gates all channel mutations behind ownership/admin/system-admin
// checks and enforces the profile-immutability and unique-name invariants.
// It holds only store handles; there is no instance state.
type Service struct {
	channels ChannelStore
	grants   GrantStore
	admins   AdminChecker
	events   broker.Publisher
	log      *zap.Logger
}

func New(channels ChannelStore, grants GrantStore, admins AdminChecker, events broker.Publisher, logger *zap.Logger) *Service {
	return &Service{
		channels: channels,
		grants:   grants,
		admins:   admins,
		events:   events,
		log:      logger,
	}
}

// Create makes requestingUser the owner of a new channel and, for non-profile
// channels, seeds the owner's grant with the full capability set. Non-profile
// names must not collide with another non-profile channel; the check runs
// before any write, and the store's unique index backstops the race window.
// Profile channels get no explicit grant: ownership alone governs them.
func (s *Service) Create(ctx context.Context, ch models.Channel, requestingUser string) (models.Channel, error) {
	ch.User = requestingUser

	if !ch.IsProfile {
		n, err := s.channels.CountOthersWithName(ctx, ch.Name, primitive.NilObjectID)
		if err != nil {
			return models.Channel{}, err
		}
		if n > 0 {
			return models.Channel{}, usererrors.DuplicateName()
		}
	}

	created, err := s.channels.Create(ctx, ch)
	if err != nil {
		return models.Channel{}, err
	}

	if !created.IsProfile {
		_, err := s.grants.Create(ctx, models.UserPermissions{
			User:        created.User,
			Channel:     created.ID,
			Permissions: models.AllPermissions(),
		})
		if err != nil {
			return models.Channel{}, err
		}
	}

	return created, nil
}

// CreateProfile creates the auto-created profile channel for a new user.
// Thin wrapper used by the RPC surface; no extra authorization logic.
func (s *Service) CreateProfile(ctx context.Context, owner, name, description string) (models.Channel, error) {
	return s.Create(ctx, models.Channel{
		Name:        name,
		Description: description,
		IsProfile:   true,
	}, owner)
}

// UpdateByID applies a partial update after the not-found, profile, and
// authorization gates. A new name is re-checked for uniqueness against all
// other non-profile channels.
func (s *Service) UpdateByID(ctx context.Context, id primitive.ObjectID, u channelstore.Update, requestingUser string, isSystemAdmin bool) (models.Channel, error) {
	ch, err := s.loadMutable(ctx, id, requestingUser, isSystemAdmin)
	if err != nil {
		return models.Channel{}, err
	}

	if u.Name != nil && *u.Name != ch.Name {
		n, err := s.channels.CountOthersWithName(ctx, *u.Name, id)
		if err != nil {
			return models.Channel{}, err
		}
		if n > 0 {
			return models.Channel{}, usererrors.DuplicateName()
		}
	}

	updated, ok, err := s.channels.UpdateByID(ctx, id, u)
	if err != nil {
		return models.Channel{}, err
	}
	if !ok {
		// Deleted between the load and the update.
		return models.Channel{}, usererrors.ChannelNotFound()
	}
	return updated, nil
}

// DeleteByID removes the channel after the same gate sequence as update and
// announces the deletion. A failed publish is logged and never fails the
// delete.
func (s *Service) DeleteByID(ctx context.Context, id primitive.ObjectID, requestingUser string, isSystemAdmin bool) (models.Channel, error) {
	if _, err := s.loadMutable(ctx, id, requestingUser, isSystemAdmin); err != nil {
		return models.Channel{}, err
	}

	deleted, ok, err := s.channels.DeleteByID(ctx, id)
	if err != nil {
		return models.Channel{}, err
	}
	if !ok {
		return models.Channel{}, usererrors.ChannelNotFound()
	}

	if err := s.events.Publish(context.WithoutCancel(ctx), broker.TopicChannelRemoveSucceeded, broker.ChannelRemoved{ID: deleted.ID.Hex()}); err != nil {
		s.log.Warn("channel.remove.succeeded publish failed",
			zap.String("channel_id", deleted.ID.Hex()),
			zap.Error(err))
	}

	return deleted, nil
}

// loadMutable runs the shared load → not-found → profile → authorization
// sequence for update and delete.
func (s *Service) loadMutable(ctx context.Context, id primitive.ObjectID, requestingUser string, isSystemAdmin bool) (models.Channel, error) {
	ch, ok, err := s.channels.GetByID(ctx, id)
	if err != nil {
		return models.Channel{}, err
	}
	if !ok {
		return models.Channel{}, usererrors.ChannelNotFound()
	}
	if ch.IsProfile {
		return models.Channel{}, usererrors.ProfileEditingForbidden()
	}

	if requestingUser == ch.User || isSystemAdmin {
		return ch, nil
	}
	isAdmin, err := s.admins.IsUserAdmin(ctx, requestingUser, ch.ID)
	if err != nil {
		return models.Channel{}, err
	}
	if !isAdmin {
		return models.Channel{}, usererrors.UnauthorizedUser()
	}
	return ch, nil
}

// Reads apply no authorization gate: callers that need tighter semantics add
// their own. Read-after-write consistency holds only against the same store.

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error) {
	return s.channels.GetByID(ctx, id)
}

func (s *Service) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error) {
	return s.channels.GetByIDs(ctx, ids)
}

func (s *Service) GetMany(ctx context.Context, f channelstore.Filter, w paging.Window) ([]models.Channel, error) {
	return s.channels.GetMany(ctx, f, w)
}

func (s *Service) GetAmount(ctx context.Context, f channelstore.Filter) (int64, error) {
	return s.channels.GetAmount(ctx, f)
}

func (s *Service) GetSearched(ctx context.Context, search string, w paging.Window) ([]models.Channel, error) {
	return s.channels.GetSearched(ctx, search, w)
}

func (s *Service) GetSearchedAmount(ctx context.Context, search string) (int64, error) {
	return s.channels.GetSearchedAmount(ctx, search)
}
