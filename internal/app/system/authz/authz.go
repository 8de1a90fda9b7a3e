// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/bluestream/channelhub/internal/app/system/auth"
)

// RequestingUser returns the authenticated user's ID and a found flag.
// ok=false means the request is anonymous; handlers behind RequireSignedIn
// can rely on ok=true.
func RequestingUser(r *http.Request) (string, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID == "" {
		return "", false
	}
	return u.ID, true
}

// IsSystemAdmin reports whether the current request's user carries the
// system-admin flag asserted by the authenticator.
func IsSystemAdmin(r *http.Request) bool {
	u, ok := auth.CurrentUser(r)
	return ok && u.IsSysAdmin
}
