// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bluestream/channelhub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateChannel inserts a channel owned by user and returns it.
func (f *Fixtures) CreateChannel(ctx context.Context, user, name string, isProfile bool) models.Channel {
	f.t.Helper()

	now := time.Now().UTC()
	ch := models.Channel{
		ID:          primitive.NewObjectID(),
		User:        user,
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "test channel",
		IsProfile:   isProfile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("channels").InsertOne(ctx, ch); err != nil {
		f.t.Fatalf("failed to create test channel: %v", err)
	}
	return ch
}

// CreateGrant inserts a permission grant and returns it.
func (f *Fixtures) CreateGrant(ctx context.Context, user string, channel primitive.ObjectID, perms ...models.PermissionType) models.UserPermissions {
	f.t.Helper()

	now := time.Now().UTC()
	up := models.UserPermissions{
		ID:          primitive.NewObjectID(),
		User:        user,
		Channel:     channel,
		Permissions: perms,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("user_permissions").InsertOne(ctx, up); err != nil {
		f.t.Fatalf("failed to create test grant: %v", err)
	}
	return up
}
