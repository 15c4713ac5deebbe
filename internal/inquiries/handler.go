package inquiries

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/platform/httpx"
)

// Handler exposes inquiry endpoints. The public surface only allows creating
// an inquiry and looking it up by reference; triage happens on admin routes.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPublicRoutes wires the storefront-facing endpoints.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/inquiries", h.Create)
	r.Get("/inquiries/{reference}", h.ShowByReference)
}

// MountRoutes wires the admin inbox endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inquiries", h.List)
	r.Get("/inquiries/{id}", h.Show)
	r.Post("/inquiries/{id}/handled", h.MarkHandled)
	r.Delete("/inquiries/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInquiryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inquiry, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inquiry)
}

func (h *Handler) ShowByReference(w http.ResponseWriter, r *http.Request) {
	inquiry, err := h.service.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inquiry)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListInquiriesRequest{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inquiries, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"inquiries": inquiries, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.inquiryID(w, r)
	if !ok {
		return
	}
	inquiry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inquiry)
}

func (h *Handler) MarkHandled(w http.ResponseWriter, r *http.Request) {
	id, ok := h.inquiryID(w, r)
	if !ok {
		return
	}
	inquiry, err := h.service.MarkHandled(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inquiry)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.inquiryID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) inquiryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid inquiry id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidDates):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("inquiry request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
