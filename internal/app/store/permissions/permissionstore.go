// internal/app/store/permissions/permissionstore.go
package permissionstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_permissions")}
}

// Filter matches grants by exact equality on each provided field.
type Filter struct {
	User       string
	Channel    primitive.ObjectID
	Permission models.PermissionType // grant must contain this capability
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.User != "" {
		q["user"] = f.User
	}
	if f.Channel != primitive.NilObjectID {
		q["channel"] = f.Channel
	}
	if f.Permission != "" {
		q["permissions"] = f.Permission
	}
	return q
}

// PermittedChannel is a grant joined with the channel it applies to.
type PermittedChannel struct {
	Permissions []models.PermissionType `bson:"permissions" json:"permissions"`
	Channel     models.Channel          `bson:"channel" json:"channel"`
}

func (s *Store) Create(ctx context.Context, up models.UserPermissions) (models.UserPermissions, error) {
	now := time.Now().UTC()
	up.ID = primitive.NewObjectID()
	up.CreatedAt = now
	up.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, up); err != nil {
		if wafflemongo.IsDup(err) {
			return models.UserPermissions{}, usererrors.PermissionsAlreadyExist()
		}
		return models.UserPermissions{}, err
	}
	return up, nil
}

// UpdateOne replaces the permission set of the (user, channel) grant
// wholesale and returns the updated grant. The boolean is false when no
// grant exists for that pair.
func (s *Store) UpdateOne(ctx context.Context, user string, channel primitive.ObjectID, permissions []models.PermissionType) (models.UserPermissions, bool, error) {
	after := options.After
	var up models.UserPermissions
	err := s.c.FindOneAndUpdate(
		ctx,
		bson.M{"user": user, "channel": channel},
		bson.M{"$set": bson.M{
			"permissions": permissions,
			"updated_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&up)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.UserPermissions{}, false, nil
		}
		return models.UserPermissions{}, false, err
	}
	return up, true, nil
}

// DeleteOne removes the (user, channel) grant and returns it. The boolean is
// false when no grant existed.
func (s *Store) DeleteOne(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error) {
	var up models.UserPermissions
	err := s.c.FindOneAndDelete(ctx, bson.M{"user": user, "channel": channel}).Decode(&up)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.UserPermissions{}, false, nil
		}
		return models.UserPermissions{}, false, err
	}
	return up, true, nil
}

func (s *Store) GetOne(ctx context.Context, user string, channel primitive.ObjectID) (models.UserPermissions, bool, error) {
	var up models.UserPermissions
	err := s.c.FindOne(ctx, bson.M{"user": user, "channel": channel}).Decode(&up)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.UserPermissions{}, false, nil
		}
		return models.UserPermissions{}, false, err
	}
	return up, true, nil
}

func (s *Store) GetMany(ctx context.Context, f Filter, w paging.Window) ([]models.UserPermissions, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: sortField(w.SortBy), Value: w.SortOrder},
			{Key: "_id", Value: w.SortOrder},
		}).
		SetSkip(w.Start).
		SetLimit(w.Limit())

	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.UserPermissions{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetAmount(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// GetUserPermittedChannels returns the channels the user holds a grant on,
// joined with the channel documents. Permissions narrows to grants containing
// any of the given capabilities; search matches the joined channel's owner,
// name, or description case-insensitively.
func (s *Store) GetUserPermittedChannels(ctx context.Context, user string, permissions []models.PermissionType, search string, w paging.Window) ([]PermittedChannel, error) {
	pipe := s.permittedChannelsPipe(user, permissions, search)
	pipe = append(pipe,
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: permittedSortField(w.SortBy), Value: w.SortOrder},
			{Key: "channel._id", Value: w.SortOrder},
		}}},
		bson.D{{Key: "$skip", Value: w.Start}},
		bson.D{{Key: "$limit", Value: w.Limit()}},
		bson.D{{Key: "$project", Value: bson.M{"permissions": 1, "channel": 1}}},
	)

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []PermittedChannel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserPermittedChannelsAmount counts the channels GetUserPermittedChannels
// would return for the same filters.
func (s *Store) GetUserPermittedChannelsAmount(ctx context.Context, user string, permissions []models.PermissionType, search string) (int64, error) {
	pipe := s.permittedChannelsPipe(user, permissions, search)
	pipe = append(pipe, bson.D{{Key: "$count", Value: "amount"}})

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Amount int64 `bson:"amount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Amount, nil
}

func (s *Store) permittedChannelsPipe(user string, permissions []models.PermissionType, search string) mongo.Pipeline {
	match := bson.M{"user": user}
	if len(permissions) > 0 {
		match["permissions"] = bson.M{"$in": permissions}
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "channels",
			"localField":   "channel",
			"foreignField": "_id",
			"as":           "channel",
		}}},
		bson.D{{Key: "$unwind", Value: "$channel"}},
	}

	if search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		pipe = append(pipe, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"channel.user": re},
			bson.M{"channel.name": re},
			bson.M{"channel.description": re},
		}}}})
	}

	return pipe
}

func sortField(sortBy string) string {
	switch sortBy {
	case "created_at":
		return "created_at"
	default:
		return "user"
	}
}

func permittedSortField(sortBy string) string {
	switch sortBy {
	case "created_at":
		return "channel.created_at"
	default:
		return "channel.name_ci"
	}
}
