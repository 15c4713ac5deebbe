package quotes

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires the quote lifecycle endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotes", h.List)
	r.Post("/quotes", h.Create)
	r.Route("/quotes/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/lines", h.UpsertLine)
		r.Post("/lines/custom", h.AddCustomLine)
		r.Delete("/lines/{lineID}", h.RemoveLine)
		r.Post("/finalize", h.Finalize)
		r.Post("/unfinalize", h.Unfinalize)
		r.Post("/pay", h.MarkPaid)
		r.Post("/unpay", h.Unpay)
	})
}
