// internal/domain/usererrors/usererrors.go
//
// Request-scoped, user-visible failures raised by the authorization
// services. Each kind carries a stable machine-readable category and an
// HTTP status; the default message can be overridden per instance.
// None of these are fatal to the process.
package usererrors

import (
	"errors"
	"net/http"
)

// Kind is the stable machine-readable category of a user error.
type Kind string

const (
	KindChannelNotFound              Kind = "channel_not_found"
	KindUnauthorizedUser             Kind = "unauthorized_user"
	KindProfileEditingForbidden      Kind = "profile_editing_forbidden"
	KindDuplicateName                Kind = "duplicate_name"
	KindPermissionsAlreadyExist      Kind = "user_permissions_already_exists"
	KindPermissionsNotFound          Kind = "user_permissions_not_found"
	KindOwnerPermissionsNotRemovable Kind = "owner_permissions_can_not_be_removed"
	KindPropertyInvalid              Kind = "property_invalid"
	KindIDInvalid                    Kind = "id_invalid"
)

// Error is a categorized, user-visible failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, status int, def string, msg ...string) *Error {
	m := def
	if len(msg) > 0 && msg[0] != "" {
		m = msg[0]
	}
	return &Error{Kind: kind, Status: status, Message: m}
}

// ChannelNotFound: referenced channel id does not resolve.
func ChannelNotFound(msg ...string) *Error {
	return newError(KindChannelNotFound, http.StatusNotFound, "Channel not found", msg...)
}

// UnauthorizedUser: actor lacks owner/admin/system-admin authority.
func UnauthorizedUser(msg ...string) *Error {
	return newError(KindUnauthorizedUser, http.StatusForbidden, "User is not authorized to perform this action", msg...)
}

// ProfileEditingForbidden: mutation attempted against a profile channel or its grants.
func ProfileEditingForbidden(msg ...string) *Error {
	return newError(KindProfileEditingForbidden, http.StatusForbidden, "Profile channels cannot be edited", msg...)
}

// DuplicateName: channel name collides with another non-profile channel.
func DuplicateName(msg ...string) *Error {
	return newError(KindDuplicateName, http.StatusConflict, "A channel with this name already exists", msg...)
}

// PermissionsAlreadyExist: a grant already exists for (user, channel).
func PermissionsAlreadyExist(msg ...string) *Error {
	return newError(KindPermissionsAlreadyExist, http.StatusConflict, "Permissions already exist for this user and channel", msg...)
}

// PermissionsNotFound: no grant exists for (user, channel).
func PermissionsNotFound(msg ...string) *Error {
	return newError(KindPermissionsNotFound, http.StatusNotFound, "Permissions not found for this user and channel", msg...)
}

// OwnerPermissionsNotRemovable: attempt to delete the owner's grant, or the
// channel could not be resolved while deleting.
func OwnerPermissionsNotRemovable(msg ...string) *Error {
	return newError(KindOwnerPermissionsNotRemovable, http.StatusForbidden, "The channel owner's permissions cannot be removed", msg...)
}

// PropertyInvalid: a request field failed validation.
func PropertyInvalid(msg ...string) *Error {
	return newError(KindPropertyInvalid, http.StatusBadRequest, "Property is invalid", msg...)
}

// IDInvalid: a path or query id is not a well-formed object id.
func IDInvalid(msg ...string) *Error {
	return newError(KindIDInvalid, http.StatusBadRequest, "Id is invalid", msg...)
}

// IsKind reports whether err is (or wraps) a user error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}

// From extracts the user error from err, if any.
func From(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}
