// internal/app/features/channels/routes.go
package channels

import (
	"github.com/go-chi/chi/v5"

	"github.com/bluestream/channelhub/internal/app/system/auth"
)

// Routes returns the router for channel endpoints. Mutations require a
// signed-in user; reads are open to anonymous callers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.Create)
		pr.Post("/profile", h.CreateProfile)
		pr.Put("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})

	r.Get("/many", h.GetMany)
	r.Get("/amount", h.GetAmount)
	r.Get("/search", h.GetSearched)
	r.Get("/search/amount", h.GetSearchedAmount)
	r.Get("/ids", h.GetByIDs)
	r.Get("/{id}", h.GetByID)

	return r
}
