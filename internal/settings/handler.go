package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/yniverz/erp-rent/internal/platform/httpx"
)

// UpdateSettingsRequest carries the full settings document.
type UpdateSettingsRequest struct {
	BusinessName      string  `json:"business_name" validate:"required,max=200"`
	CompanyLines      string  `json:"company_lines" validate:"max=2000"`
	TaxMode           TaxMode `json:"tax_mode" validate:"omitempty,oneof=kleinunternehmer regular"`
	VATRate           float64 `json:"vat_rate" validate:"gte=0,lte=100"`
	NotificationEmail string  `json:"notification_email" validate:"omitempty,email"`
}

// Handler exposes settings endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes wires the settings endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.Show)
	r.Put("/settings", h.Update)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	st, err := h.service.Update(r.Context(), Settings{
		BusinessName:      req.BusinessName,
		CompanyLines:      req.CompanyLines,
		TaxMode:           req.TaxMode,
		VATRate:           req.VATRate,
		NotificationEmail: req.NotificationEmail,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTaxMode) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}
