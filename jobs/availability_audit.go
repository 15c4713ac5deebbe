package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/observability"
	"github.com/yniverz/erp-rent/internal/quotes"
)

// AvailabilityAuditJob walks every booked date range and reports items whose
// finalized demand exceeds stock. Overbooking is allowed at finalize time, so
// this audit is what keeps silent conflicts visible between edits.
type AvailabilityAuditJob struct {
	Engine  *availability.Engine
	Catalog catalog.Repository
	Quotes  quotes.Repository
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewAvailabilityAuditJob initialises the audit handler.
func NewAvailabilityAuditJob(engine *availability.Engine, catalogRepo catalog.Repository, quoteRepo quotes.Repository, logger *slog.Logger, metrics *observability.Metrics) *AvailabilityAuditJob {
	return &AvailabilityAuditJob{
		Engine:  engine,
		Catalog: catalogRepo,
		Quotes:  quoteRepo,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the audit.
func (j *AvailabilityAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Engine == nil {
		return errors.New("availability audit: handler not configured")
	}
	var payload AvailabilityAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.HorizonDays <= 0 {
		payload.HorizonDays = 90
	}

	done := j.Metrics.TrackJob(TaskTypeAvailabilityAudit)
	var resultErr error
	defer func() { done(resultErr) }()

	logger := j.logger()
	logger.Info("starting availability audit", slog.Int("horizon_days", payload.HorizonDays))

	overbooked, ranges, err := j.audit(ctx, payload.HorizonDays)
	if err != nil {
		resultErr = err
		logger.Error("audit failed", slog.Any("error", err))
		return resultErr
	}

	for itemID, name := range overbooked {
		logger.Warn("item overbooked",
			slog.Int64("item_id", itemID),
			slog.String("item", name))
	}
	j.Metrics.SetOverbookedItems(len(overbooked))

	logger.Info("completed availability audit",
		slog.Int("ranges", ranges),
		slog.Int("overbooked", len(overbooked)))
	return nil
}

// audit checks each distinct booked range against the full catalog and
// collects items that come up overbooked in any of them.
func (j *AvailabilityAuditJob) audit(ctx context.Context, horizonDays int) (map[int64]string, int, error) {
	horizon := j.now().AddDate(0, 0, horizonDays)

	blocking, err := j.Quotes.ListBlockingRaw(ctx)
	if err != nil {
		return nil, 0, err
	}

	type dateRange struct{ start, end time.Time }
	seen := make(map[string]dateRange)
	for _, q := range blocking {
		if q.StartDate == nil || q.EndDate == nil || q.StartDate.After(horizon) {
			continue
		}
		key := q.StartDate.Format("2006-01-02") + ":" + q.EndDate.Format("2006-01-02")
		seen[key] = dateRange{start: *q.StartDate, end: *q.EndDate}
	}
	if len(seen) == 0 {
		return nil, 0, nil
	}

	items, _, err := j.Catalog.List(ctx, catalog.ListItemsRequest{})
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, 0, len(items))
	names := make(map[int64]string, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		names[item.ID] = item.Name
	}

	overbooked := make(map[int64]string)
	for _, rng := range seen {
		results, _, err := j.Engine.AvailableAll(ctx, ids, rng.start, rng.end, availability.Options{})
		if err != nil {
			return nil, 0, err
		}
		for id, res := range results {
			if res.Overbooked {
				overbooked[id] = names[id]
			}
		}
	}
	return overbooked, len(seen), nil
}

func (j *AvailabilityAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeAvailabilityAudit))
	}
	return slog.Default().With(slog.String("job", TaskTypeAvailabilityAudit))
}

func (j *AvailabilityAuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
