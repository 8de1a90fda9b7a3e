// internal/app/store/channels/channelstore.go
package channelstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/bluestream/channelhub/internal/app/system/paging"
	"github.com/bluestream/channelhub/internal/domain/models"
	"github.com/bluestream/channelhub/internal/domain/usererrors"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("channels")}
}

// Filter matches channels by exact equality on each provided field.
// Zero values mean "no constraint" (IsProfile uses a pointer so callers can
// constrain on false).
type Filter struct {
	User      string
	Name      string
	IsProfile *bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.User != "" {
		q["user"] = f.User
	}
	if f.Name != "" {
		q["name"] = f.Name
	}
	if f.IsProfile != nil {
		q["is_profile"] = *f.IsProfile
	}
	return q
}

// Update carries the partial-update fields for a channel. Nil means "leave
// unchanged"; Description may be set to the empty string.
type Update struct {
	Name        *string
	Description *string
}

func (s *Store) Create(ctx context.Context, ch models.Channel) (models.Channel, error) {
	now := time.Now().UTC()
	ch.ID = primitive.NewObjectID()
	ch.NameCI = text.Fold(ch.Name)
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Channel{}, usererrors.DuplicateName()
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// UpdateByID applies a partial update and returns the updated document.
// The boolean is false when no channel has the given id.
func (s *Store) UpdateByID(ctx context.Context, id primitive.ObjectID, u Update) (models.Channel, bool, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
		set["name_ci"] = text.Fold(*u.Name)
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}

	after := options.After
	var ch models.Channel
	err := s.c.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Channel{}, false, nil
		}
		if wafflemongo.IsDup(err) {
			return models.Channel{}, false, usererrors.DuplicateName()
		}
		return models.Channel{}, false, err
	}
	return ch, true, nil
}

// DeleteByID removes a channel and returns the deleted document.
// The boolean is false when nothing was deleted.
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error) {
	var ch models.Channel
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Channel{}, false, nil
		}
		return models.Channel{}, false, err
	}
	return ch, true, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, bool, error) {
	var ch models.Channel
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Channel{}, false, nil
		}
		return models.Channel{}, false, err
	}
	return ch, true, nil
}

// GetByIDs returns the channels whose ids appear in the set. Missing ids are
// silently absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Channel, error) {
	if len(ids) == 0 {
		return []models.Channel{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Channel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetMany(ctx context.Context, f Filter, w paging.Window) ([]models.Channel, error) {
	return s.find(ctx, f.query(), w)
}

func (s *Store) GetAmount(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// GetSearched matches channels whose owner, name, or description contains
// the search text, case-insensitively.
func (s *Store) GetSearched(ctx context.Context, search string, w paging.Window) ([]models.Channel, error) {
	return s.find(ctx, searchQuery(search), w)
}

func (s *Store) GetSearchedAmount(ctx context.Context, search string) (int64, error) {
	return s.c.CountDocuments(ctx, searchQuery(search))
}

// CountOthersWithName counts non-profile channels sharing the folded name,
// excluding the given id (pass NilObjectID to exclude nothing). Used by the
// uniqueness checks before create and rename.
func (s *Store) CountOthersWithName(ctx context.Context, name string, exclude primitive.ObjectID) (int64, error) {
	q := bson.M{
		"name_ci":    text.Fold(name),
		"is_profile": false,
	}
	if exclude != primitive.NilObjectID {
		q["_id"] = bson.M{"$ne": exclude}
	}
	return s.c.CountDocuments(ctx, q)
}

func (s *Store) find(ctx context.Context, q bson.M, w paging.Window) ([]models.Channel, error) {
	opts := options.Find().
		SetSort(sortDoc(w)).
		SetSkip(w.Start).
		SetLimit(w.Limit())

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Channel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortDoc(w paging.Window) bson.D {
	field := w.SortBy
	if field == "name" || field == "" {
		field = "name_ci"
	}
	return bson.D{
		{Key: field, Value: w.SortOrder},
		{Key: "_id", Value: w.SortOrder},
	}
}

func searchQuery(search string) bson.M {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"user": re},
		bson.M{"name": re},
		bson.M{"description": re},
	}}
}
