// internal/app/features/permissions/routes.go
package permissions

import (
	"github.com/go-chi/chi/v5"

	"github.com/bluestream/channelhub/internal/app/system/auth"
)

// Routes returns the router for user-permission endpoints. Every decision
// here depends on who is asking, so the whole surface requires a signed-in
// user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.Create)
	r.Put("/one", h.UpdateOne)
	r.Delete("/one", h.DeleteOne)
	r.Get("/one", h.GetOne)

	r.Get("/channel/{id}/users", h.GetChannelPermittedUsers)
	r.Get("/channel/{id}/users/amount", h.GetChannelPermittedUsersAmount)

	r.Get("/my-channels", h.GetUserPermittedChannels)
	r.Get("/my-channels/amount", h.GetUserPermittedChannelsAmount)

	return r
}
