package catalog

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires the admin catalog endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.List)
	r.Post("/items", h.Create)
	r.Get("/items/{id}", h.Show)
	r.Put("/items/{id}", h.Update)
	r.Delete("/items/{id}", h.Delete)
	r.Get("/items/{id}/availability", h.Availability)
	r.Get("/availability", h.AvailabilityBoard)
}
