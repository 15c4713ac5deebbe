package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/platform/httpx"
	"github.com/yniverz/erp-rent/internal/settings"
)

// Handler exposes the quote lifecycle endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	settings  *settings.Service
	validator *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, settingsSvc *settings.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		settings:  settingsSvc,
		validator: validator.New(),
	}
}

// quoteResponse is a quote with its pricing under current site settings.
type quoteResponse struct {
	Quote  Quote  `json:"quote"`
	Totals Totals `json:"totals"`
}

// finalizeResponse carries the quote plus any over-capacity warnings. The
// warnings do not stop the transition.
type finalizeResponse struct {
	Quote    Quote                    `json:"quote"`
	Totals   Totals                   `json:"totals"`
	Warnings []availability.Shortfall `json:"warnings,omitempty"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{
		Customer: r.URL.Query().Get("customer"),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quotes, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": quotes, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var quote Quote
	var st settings.Settings
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		quote, err = h.service.Get(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		st, err = h.settings.Get(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quoteResponse{Quote: quote, Totals: ComputeTotals(quote, st)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	var req UpdateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpsertLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	var req UpsertLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.UpsertLine(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) AddCustomLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	var req CustomLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.AddCustomLine(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid line id")
		return
	}

	quote, err := h.service.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	quote, warnings, err := h.service.Finalize(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	st, err := h.settings.Get(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, finalizeResponse{
		Quote:    quote,
		Totals:   ComputeTotals(quote, st),
		Warnings: warnings,
	})
}

func (h *Handler) Unfinalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Unfinalize)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkPaid)
}

func (h *Handler) Unpay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Unpay)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (Quote, error)) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	quote, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quote id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, availability.ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrDatesRequired),
		errors.Is(err, ErrRentalStep),
		errors.Is(err, availability.ErrInvalidDateRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("quote request failed", slog.Any("error", err))
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
