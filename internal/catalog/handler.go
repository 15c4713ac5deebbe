package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/platform/httpx"
)

// Handler exposes catalog and availability endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	engine    *availability.Engine
	validator *validator.Validate
	boards    singleflight.Group
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, engine *availability.Engine) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		engine:    engine,
		validator: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListItemsRequest{
		Search: r.URL.Query().Get("search"),
		Kind:   r.URL.Query().Get("kind"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	var req UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability answers "how many units of this item are free between start
// and end", optionally excluding the quote currently being edited.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	start, end, opts, err := parseAvailabilityQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.engine.Available(r.Context(), id, start, end, opts)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// boardEntry is one row of the availability board.
type boardEntry struct {
	Item         Item                 `json:"item"`
	Availability *availability.Result `json:"availability,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// AvailabilityBoard renders availability for the whole catalog over one
// range, the way the quote edit screen shows it. Identical concurrent
// requests share one computation.
func (h *Handler) AvailabilityBoard(w http.ResponseWriter, r *http.Request) {
	start, end, opts, err := parseAvailabilityQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// The computation is shared between coalesced callers, so it must not
	// die with whichever request happened to start it.
	ctx := context.WithoutCancel(r.Context())
	key := boardKey(start, end, opts)
	value, err, _ := h.boards.Do(key, func() (any, error) {
		return h.buildBoard(ctx, start, end, opts)
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, value)
}

func (h *Handler) buildBoard(ctx context.Context, start, end time.Time, opts availability.Options) ([]boardEntry, error) {
	items, _, err := h.service.List(ctx, ListItemsRequest{})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	results, errs, err := h.engine.AvailableAll(ctx, ids, start, end, opts)
	if err != nil {
		return nil, err
	}

	board := make([]boardEntry, 0, len(items))
	for _, item := range items {
		entry := boardEntry{Item: item}
		if res, ok := results[item.ID]; ok {
			entry.Availability = &res
		} else if itemErr, ok := errs[item.ID]; ok {
			entry.Error = itemErr.Error()
		}
		board = append(board, entry)
	}
	return board, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, availability.ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, availability.ErrInvalidDateRange),
		errors.Is(err, ErrNotPackage),
		errors.Is(err, ErrNoComponents),
		errors.Is(err, ErrSelfComponent):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseAvailabilityQuery(r *http.Request) (start, end time.Time, opts availability.Options, err error) {
	start, err = time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		return start, end, opts, fmt.Errorf("invalid or missing start date")
	}
	end, err = time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		return start, end, opts, fmt.Errorf("invalid or missing end date")
	}
	if raw := r.URL.Query().Get("exclude_quote"); raw != "" {
		id, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return start, end, opts, fmt.Errorf("invalid exclude_quote id")
		}
		opts.ExcludeQuoteID = &id
	}
	return start, end, opts, nil
}

func boardKey(start, end time.Time, opts availability.Options) string {
	parts := []string{start.Format("2006-01-02"), end.Format("2006-01-02")}
	if opts.ExcludeQuoteID != nil {
		parts = append(parts, strconv.FormatInt(*opts.ExcludeQuoteID, 10))
	}
	return strings.Join(parts, ":")
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
