// internal/domain/models/userpermissions.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PermissionType is a capability tag a user can hold on a channel.
type PermissionType string

const (
	PermissionUpload PermissionType = "UPLOAD"
	PermissionEdit   PermissionType = "EDIT"
	PermissionRemove PermissionType = "REMOVE"
	PermissionAdmin  PermissionType = "ADMIN"
)

// AllPermissions is the full capability set granted to a channel owner
// when a non-profile channel is created.
func AllPermissions() []PermissionType {
	return []PermissionType{PermissionAdmin, PermissionEdit, PermissionRemove, PermissionUpload}
}

// Valid reports whether p is one of the known capability tags.
func (p PermissionType) Valid() bool {
	switch p {
	case PermissionUpload, PermissionEdit, PermissionRemove, PermissionAdmin:
		return true
	}
	return false
}

// UserPermissions is one grant record: the capabilities a single user holds
// on a single channel. Uniqueness of (Channel, User) is enforced by the
// store's unique index. Grants exist primarily for non-owner delegated
// authority; the owner's rights do not depend on a grant being present.
type UserPermissions struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	User        string             `bson:"user" json:"user"`
	Channel     primitive.ObjectID `bson:"channel" json:"channel"`
	Permissions []PermissionType   `bson:"permissions" json:"permissions"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Has reports whether the grant includes the given capability.
func (up UserPermissions) Has(p PermissionType) bool {
	for _, cur := range up.Permissions {
		if cur == p {
			return true
		}
	}
	return false
}
