package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/insightboard/insightboard/internal/billing"
	"github.com/insightboard/insightboard/internal/clock"
	"github.com/insightboard/insightboard/internal/cloudmetrics"
	"github.com/insightboard/insightboard/internal/config"
	obsmetrics "github.com/insightboard/insightboard/internal/observability/metrics"
	"github.com/insightboard/insightboard/internal/plan"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
	"github.com/insightboard/insightboard/pkg/db/option"
	"github.com/insightboard/insightboard/pkg/db/pagination"
	"github.com/insightboard/insightboard/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	TenantSvc     tenantdomain.Service
	BillingConfig *config.BillingConfigHolder
	ObsMetrics    *obsmetrics.Metrics        `optional:"true"`
	Accounting    *cloudmetrics.CloudMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	tenantSvc  tenantdomain.Service
	billingCfg *config.BillingConfigHolder
	eventRepo  repository.Repository[usagedomain.UsageEvent]
	obsMetrics *obsmetrics.Metrics
	accounting *cloudmetrics.CloudMetrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		tenantSvc:  p.TenantSvc,
		billingCfg: p.BillingConfig,
		eventRepo:  repository.ProvideStore[usagedomain.UsageEvent](p.DB),
		obsMetrics: p.ObsMetrics,
		accounting: p.Accounting,
	}
}

func (s *Service) TrackEvent(ctx context.Context, req usagedomain.TrackEventRequest) (*usagedomain.UsageEvent, error) {
	if req.TenantID == 0 {
		return nil, usagedomain.ErrInvalidTenant
	}
	if !req.EventType.Valid() {
		return nil, usagedomain.ErrInvalidEventType
	}

	tenant, err := s.tenantSvc.Resolve(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	payload, err := usagedomain.DecodePayload(req.EventType, req.Payload)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	period := clock.Period(now)
	deltas := payload.Deltas()

	rawPayload := req.Payload
	if len(rawPayload) == 0 {
		rawPayload = json.RawMessage("{}")
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	event := &usagedomain.UsageEvent{
		ID:         s.genID.Generate(),
		TenantID:   tenant.ID,
		EventType:  string(req.EventType),
		Period:     period,
		Payload:    datatypes.JSON(rawPayload),
		Metadata:   datatypes.JSONMap(metadata),
		OccurredAt: now,
		CreatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.eventRepo.WithTrx(tx).Create(ctx, event); err != nil {
			return err
		}
		return s.applyDeltas(ctx, tx, tenant, period, now, deltas)
	})
	if err != nil {
		s.log.Error("track event failed",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("event_type", string(req.EventType)),
			zap.Error(err),
		)
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordUsageIngest(ctx, string(req.EventType))
	}
	if s.accounting != nil {
		s.accounting.RecordUsageEvent(tenant.Slug, string(req.EventType))
	}

	s.log.Debug("usage event recorded",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("event_type", string(req.EventType)),
		zap.String("period", period),
	)

	return event, nil
}

// applyDeltas performs the lazy-create-or-increment on period_metrics as
// a single upsert. The insert branch seeds counters with the event's own
// deltas and freezes the tenant's current plan limits; the conflict
// branch touches only counter columns, so concurrent increments resolve
// at the database without read-modify-write races and a frozen snapshot
// is never rewritten.
func (s *Service) applyDeltas(
	ctx context.Context,
	tx *gorm.DB,
	tenant *tenantdomain.Tenant,
	period string,
	now time.Time,
	deltas usagedomain.Deltas,
) error {
	limits, ok := plan.LimitsFor(tenant.PlanID)
	if !ok {
		limits, _ = plan.LimitsFor(plan.Starter)
	}

	row := usagedomain.PeriodMetrics{
		ID:       s.genID.Generate(),
		TenantID: tenant.ID,
		Period:   period,

		APICalls:          deltas.APICalls,
		DataProcessed:     deltas.DataProcessed,
		StorageUsed:       deltas.StorageUsed,
		UserSessions:      deltas.UserSessions,
		DashboardViews:    deltas.DashboardViews,
		ReportGenerations: deltas.ReportGenerations,
		CustomQueries:     deltas.CustomQueries,

		PlanID:           tenant.PlanID,
		MaxAPICalls:      limits.APICalls,
		MaxDataProcessed: limits.DataProcessed,
		MaxStorage:       limits.Storage,
		MaxUsers:         limits.Users,
		MaxDashboards:    limits.Dashboards,

		CreatedAt: now,
		UpdatedAt: now,
	}

	assignments := map[string]any{"updated_at": now}
	addIncrement(assignments, "api_calls", deltas.APICalls)
	addIncrement(assignments, "data_processed", deltas.DataProcessed)
	addIncrement(assignments, "storage_used", deltas.StorageUsed)
	addIncrement(assignments, "user_sessions", deltas.UserSessions)
	addIncrement(assignments, "dashboard_views", deltas.DashboardViews)
	addIncrement(assignments, "report_generations", deltas.ReportGenerations)
	addIncrement(assignments, "custom_queries", deltas.CustomQueries)

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "period"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
}

func addIncrement(assignments map[string]any, column string, delta int64) {
	if delta == 0 {
		return
	}
	assignments[column] = gorm.Expr(column+" + ?", delta)
}

func (s *Service) GetMetrics(ctx context.Context, tenantID snowflake.ID, period string) (*usagedomain.MetricsResponse, error) {
	snapshot, err := s.GetSnapshot(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}
	resp := s.toMetricsResponse(snapshot)
	return &resp, nil
}

func (s *Service) GetSnapshot(ctx context.Context, tenantID snowflake.ID, period string) (*usagedomain.PeriodMetrics, error) {
	if tenantID == 0 {
		return nil, usagedomain.ErrInvalidTenant
	}
	if period == "" {
		period = clock.CurrentPeriod(s.clock)
	}
	if !clock.ValidPeriod(period) {
		return nil, usagedomain.ErrInvalidPeriod
	}

	var row usagedomain.PeriodMetrics
	err := s.db.WithContext(ctx).
		First(&row, "tenant_id = ? AND period = ?", tenantID, period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error("load period metrics failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period),
			zap.Error(err),
		)
		return nil, err
	}
	return &row, nil
}

func (s *Service) GetHistory(ctx context.Context, tenantID snowflake.ID, months int) ([]usagedomain.MetricsResponse, error) {
	if tenantID == 0 {
		return nil, usagedomain.ErrInvalidTenant
	}
	if months <= 0 {
		months = 6
	}
	if months > 36 {
		months = 36
	}

	periods := make([]string, 0, months)
	cursor := clock.MonthStart(s.clock.Now())
	for i := 0; i < months; i++ {
		periods = append(periods, clock.Period(cursor))
		cursor = cursor.AddDate(0, -1, 0)
	}

	var rows []usagedomain.PeriodMetrics
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND period IN ?", tenantID, periods).
		Order("period desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]usagedomain.MetricsResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.toMetricsResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, req usagedomain.ListEventsRequest) (usagedomain.ListEventsResponse, error) {
	if req.TenantID == 0 {
		return usagedomain.ListEventsResponse{}, usagedomain.ErrInvalidTenant
	}

	size := req.PageSize
	if size <= 0 {
		size = 10
	}
	if size > 250 {
		size = 250
	}

	filter := &usagedomain.UsageEvent{
		TenantID:  req.TenantID,
		EventType: string(req.EventType),
		Period:    req.Period,
	}

	opts := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{PageToken: req.PageToken, PageSize: size}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	}

	events, err := s.eventRepo.Find(ctx, filter, opts...)
	if err != nil {
		return usagedomain.ListEventsResponse{}, err
	}

	events, hasMore := pagination.TrimPage(events, size)

	resp := usagedomain.ListEventsResponse{
		Events: make([]usagedomain.UsageEvent, 0, len(events)),
	}
	resp.HasMore = hasMore
	for _, event := range events {
		resp.Events = append(resp.Events, *event)
	}
	if hasMore && len(events) > 0 {
		last := events[len(events)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err == nil {
			resp.NextPageToken = token
		}
	}
	return resp, nil
}

func (s *Service) toMetricsResponse(snapshot *usagedomain.PeriodMetrics) usagedomain.MetricsResponse {
	overages, charges := billing.ComputeCharges(snapshot, s.billingCfg.Get())
	return usagedomain.MetricsResponse{
		TenantID:    snapshot.TenantID.String(),
		Period:      snapshot.Period,
		Metrics:     *snapshot,
		Overages:    overages,
		Charges:     charges,
		GeneratedAt: s.clock.Now().UTC(),
	}
}
