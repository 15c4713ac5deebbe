package inquiries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/settings"
)

// ErrInvalidDates indicates an end date before the start date.
var ErrInvalidDates = errors.New("inquiries: end date before start date")

// Notification carries what the owner needs to see about a new inquiry.
type Notification struct {
	To           string
	Reference    string
	CustomerName string
	Email        string
	Items        []string
	StartDate    string
	EndDate      string
}

// Notifier delivers inquiry notifications, typically by enqueueing a
// background task. Delivery failures must not fail the inquiry itself.
type Notifier interface {
	NotifyNewInquiry(ctx context.Context, n Notification) error
}

// Service coordinates inquiry intake and triage.
type Service struct {
	repo     Repository
	catalog  catalog.Repository
	settings *settings.Service
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds Service. notifier may be nil.
func NewService(repo Repository, catalogRepo catalog.Repository, settingsSvc *settings.Service, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalogRepo,
		settings: settingsSvc,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Inquiry, error) {
	return s.repo.Get(ctx, id)
}

// GetByReference is the public lookup: customers only ever see the opaque
// reference, never the numeric id.
func (s *Service) GetByReference(ctx context.Context, reference string) (Inquiry, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *Service) List(ctx context.Context, req ListInquiriesRequest) ([]Inquiry, int, error) {
	return s.repo.List(ctx, req)
}

// Create records a storefront inquiry and notifies the owner.
func (s *Service) Create(ctx context.Context, req CreateInquiryRequest) (Inquiry, error) {
	inq := Inquiry{
		Reference:    uuid.NewString(),
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		Status:       StatusNew,
	}

	for _, lineReq := range req.Lines {
		item, err := s.catalog.Get(ctx, lineReq.ItemID)
		if err != nil {
			return Inquiry{}, fmt.Errorf("get item: %w", err)
		}
		qty := lineReq.Quantity
		if qty < 1 {
			qty = 1
		}
		// Snapshot name and price now so the inquiry stays readable after
		// catalog edits or item deletion.
		price := item.DefaultRentalPricePerDay
		itemID := item.ID
		inq.Lines = append(inq.Lines, InquiryLine{
			ItemID:        &itemID,
			Quantity:      qty,
			NameSnapshot:  item.Name,
			PriceSnapshot: &price,
		})
	}

	start, end, err := parseDates(req.StartDate, req.EndDate)
	if err != nil {
		return Inquiry{}, err
	}
	inq.StartDate = start
	inq.EndDate = end

	id, err := s.repo.Create(ctx, inq)
	if err != nil {
		return Inquiry{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}

	s.notify(ctx, created)
	return created, nil
}

func (s *Service) MarkHandled(ctx context.Context, id int64) (Inquiry, error) {
	if err := s.repo.UpdateStatus(ctx, id, StatusHandled); err != nil {
		return Inquiry{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) notify(ctx context.Context, inq Inquiry) {
	if s.notifier == nil {
		return
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		s.logWarn("load settings for inquiry notification", err)
		return
	}
	if st.NotificationEmail == "" {
		return
	}

	n := Notification{
		To:           st.NotificationEmail,
		Reference:    inq.Reference,
		CustomerName: inq.CustomerName,
		Email:        inq.Email,
	}
	for _, line := range inq.Lines {
		n.Items = append(n.Items, fmt.Sprintf("%dx %s", line.Quantity, line.NameSnapshot))
	}
	if inq.StartDate != nil {
		n.StartDate = inq.StartDate.Format("2006-01-02")
	}
	if inq.EndDate != nil {
		n.EndDate = inq.EndDate.Format("2006-01-02")
	}
	if err := s.notifier.NotifyNewInquiry(ctx, n); err != nil {
		s.logWarn("enqueue inquiry notification", err)
	}
}

func (s *Service) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}

func parseDates(startStr, endStr string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startStr != "" {
		t, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return nil, nil, fmt.Errorf("inquiries: invalid start date: %w", err)
		}
		start = &t
	}
	if endStr != "" {
		t, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return nil, nil, fmt.Errorf("inquiries: invalid end date: %w", err)
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, ErrInvalidDates
	}
	return start, end, nil
}
