// internal/domain/models/channel.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is a container that videos and other media hang off of.
//
// NOTE:
//   - User is the owner's identity (email-shaped) and never changes after
//     creation. Ownership checks compare against this field directly; the
//     owner does not need a permission grant to act on the channel.
//   - IsProfile marks the single auto-created channel that represents a
//     user's own profile. Profile channels are immutable: no update, delete,
//     or grant mutation is allowed once created, regardless of actor.
//   - NameCI backs the partial unique index that keeps names unique among
//     non-profile channels.
type Channel struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	User        string             `bson:"user" json:"user"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	IsProfile   bool               `bson:"is_profile" json:"isProfile"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
