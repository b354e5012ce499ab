package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/insightboard/insightboard/internal/clock"
	"github.com/insightboard/insightboard/internal/config"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	tenantrepository "github.com/insightboard/insightboard/internal/tenant/repository"
	tenantservice "github.com/insightboard/insightboard/internal/tenant/service"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
	"github.com/insightboard/insightboard/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       usagedomain.Service
	tenantSvc tenantdomain.Service
	clk       *clock.FakeClock
	db        *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_pragma=busy_timeout(5000)"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&usagedomain.UsageEvent{},
		&usagedomain.PeriodMetrics{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tenantSvc := tenantservice.NewService(db, tenantrepository.NewRepository(db), node, clk, zap.NewNop())

	svc := NewService(ServiceParam{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clk,
		TenantSvc:     tenantSvc,
		BillingConfig: config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
	})

	return &fixture{svc: svc, tenantSvc: tenantSvc, clk: clk, db: db}
}

func (f *fixture) createTenant(t *testing.T, name, planID string) snowflake.ID {
	t.Helper()
	resp, err := f.tenantSvc.Create(context.Background(), tenantdomain.CreateTenantRequest{Name: name, PlanID: planID})
	require.NoError(t, err)
	id, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	return id
}

func (f *fixture) track(t *testing.T, tenantID snowflake.ID, eventType usagedomain.EventType, payload string) {
	t.Helper()
	req := usagedomain.TrackEventRequest{TenantID: tenantID, EventType: eventType}
	if payload != "" {
		req.Payload = json.RawMessage(payload)
	}
	_, err := f.svc.TrackEvent(context.Background(), req)
	require.NoError(t, err)
}

func TestTrackEventMonotonicCount(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")

	const n = 25
	for i := 0; i < n; i++ {
		f.track(t, tenantID, usagedomain.EventAPICall, "")
	}

	snapshot, err := f.svc.GetSnapshot(context.Background(), tenantID, "")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(n), snapshot.APICalls)
	assert.Equal(t, "2026-03", snapshot.Period)
}

func TestTrackEventConcurrent(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := f.svc.TrackEvent(context.Background(), usagedomain.TrackEventRequest{
					TenantID:  tenantID,
					EventType: usagedomain.EventAPICall,
				})
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	snapshot, err := f.svc.GetSnapshot(context.Background(), tenantID, "")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(workers*perWorker), snapshot.APICalls)
}

func TestTrackEventCounterMapping(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	f.track(t, tenantID, usagedomain.EventAPICall, `{"data_size": 1024}`)
	f.track(t, tenantID, usagedomain.EventStorageUpload, `{"size": 4096}`)
	f.track(t, tenantID, usagedomain.EventStorageUpload, "")
	f.track(t, tenantID, usagedomain.EventUserSession, "")
	f.track(t, tenantID, usagedomain.EventDashboardView, "")
	f.track(t, tenantID, usagedomain.EventReportGeneration, "")
	f.track(t, tenantID, usagedomain.EventCustomQuery, `{"data_size": 512}`)
	f.track(t, tenantID, usagedomain.EventCustomQuery, "")

	snapshot, err := f.svc.GetSnapshot(ctx, tenantID, "")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, int64(1), snapshot.APICalls)
	assert.Equal(t, int64(1024+512), snapshot.DataProcessed)
	assert.Equal(t, int64(4096), snapshot.StorageUsed)
	assert.Equal(t, int64(1), snapshot.UserSessions)
	assert.Equal(t, int64(1), snapshot.DashboardViews)
	assert.Equal(t, int64(1), snapshot.ReportGenerations)
	assert.Equal(t, int64(2), snapshot.CustomQueries)
}

func TestTrackEventValidation(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	_, err := f.svc.TrackEvent(ctx, usagedomain.TrackEventRequest{TenantID: 0, EventType: usagedomain.EventAPICall})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidTenant)

	_, err = f.svc.TrackEvent(ctx, usagedomain.TrackEventRequest{TenantID: tenantID, EventType: "page_view"})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidEventType)

	_, err = f.svc.TrackEvent(ctx, usagedomain.TrackEventRequest{
		TenantID:  tenantID,
		EventType: usagedomain.EventStorageUpload,
		Payload:   json.RawMessage(`{"size": -1}`),
	})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidPayload)

	_, err = f.svc.TrackEvent(ctx, usagedomain.TrackEventRequest{TenantID: snowflake.ID(12345), EventType: usagedomain.EventAPICall})
	assert.ErrorIs(t, err, tenantdomain.ErrInvalidTenant)

	// rejected events must leave no trace
	var count int64
	require.NoError(t, f.db.Table("usage_events").Count(&count).Error)
	assert.Zero(t, count)
}

func TestLimitSnapshotFrozenWithinPeriod(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	f.track(t, tenantID, usagedomain.EventAPICall, "")

	_, err := f.tenantSvc.ChangePlan(ctx, tenantID, "enterprise")
	require.NoError(t, err)

	f.track(t, tenantID, usagedomain.EventAPICall, "")

	snapshot, err := f.svc.GetSnapshot(ctx, tenantID, "2026-03")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, "starter", snapshot.PlanID)
	assert.Equal(t, int64(10_000), snapshot.MaxAPICalls)
	assert.Equal(t, int64(2), snapshot.APICalls)

	// the next period picks up the new plan
	f.clk.Advance(31 * 24 * time.Hour)
	f.track(t, tenantID, usagedomain.EventAPICall, "")

	next, err := f.svc.GetSnapshot(ctx, tenantID, "2026-04")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "enterprise", next.PlanID)
	assert.Equal(t, int64(-1), next.MaxAPICalls)
}

func TestGetMetricsCharges(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	// push api_calls over the 10k starter limit via direct counter update
	f.track(t, tenantID, usagedomain.EventAPICall, "")
	require.NoError(t, f.db.Table("period_metrics").
		Where("tenant_id = ?", tenantID).
		Update("api_calls", 12000).Error)

	resp, err := f.svc.GetMetrics(ctx, tenantID, "")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(2000), resp.Overages.APICalls)
	assert.InDelta(t, 29.0, resp.Charges.BaseCost, 1e-9)
	assert.InDelta(t, 2.0, resp.Charges.OverageCost, 1e-9)
	assert.InDelta(t, 31.0, resp.Charges.TotalCost, 1e-9)
}

func TestGetMetricsAbsentPeriod(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")

	resp, err := f.svc.GetMetrics(context.Background(), tenantID, "2020-01")
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = f.svc.GetMetrics(context.Background(), tenantID, "March 2026")
	assert.ErrorIs(t, err, usagedomain.ErrInvalidPeriod)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	f.track(t, tenantID, usagedomain.EventAPICall, "")
	f.clk.Advance(31 * 24 * time.Hour)
	f.track(t, tenantID, usagedomain.EventAPICall, "")
	f.track(t, tenantID, usagedomain.EventAPICall, "")

	history, err := f.svc.GetHistory(ctx, tenantID, 6)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// most recent first, untouched months absent
	assert.Equal(t, "2026-04", history[0].Period)
	assert.Equal(t, int64(2), history[0].Metrics.APICalls)
	assert.Equal(t, "2026-03", history[1].Period)
	assert.Equal(t, int64(1), history[1].Metrics.APICalls)
}

func TestGetHistoryAcrossYearBoundary(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")

	f.track(t, tenantID, usagedomain.EventAPICall, "")
	f.clk.Advance(306 * 24 * time.Hour) // 2026-03-10 -> 2027-01-10
	f.track(t, tenantID, usagedomain.EventAPICall, "")

	history, err := f.svc.GetHistory(context.Background(), tenantID, 12)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2027-01", history[0].Period)
	assert.Equal(t, "2026-03", history[1].Period)
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.track(t, tenantID, usagedomain.EventAPICall, "")
		f.clk.Advance(time.Second)
	}
	f.track(t, tenantID, usagedomain.EventDashboardView, "")

	resp, err := f.svc.List(ctx, usagedomain.ListEventsRequest{
		TenantID: tenantID,
		PageSize: 3,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Events, 3)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	filtered, err := f.svc.List(ctx, usagedomain.ListEventsRequest{
		TenantID:  tenantID,
		EventType: usagedomain.EventDashboardView,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Len(t, filtered.Events, 1)
	assert.False(t, filtered.HasMore)
}

func TestListEventsRejectsMalformedPageToken(t *testing.T) {
	f := newFixture(t)
	tenantID := f.createTenant(t, "Acme", "starter")
	f.track(t, tenantID, usagedomain.EventAPICall, "")

	_, err := f.svc.List(context.Background(), usagedomain.ListEventsRequest{
		TenantID:  tenantID,
		PageToken: "not-a-cursor",
	})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
