package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/insightboard/insightboard/internal/alert"
	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	"github.com/insightboard/insightboard/internal/config"
	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
	obsmetrics "github.com/insightboard/insightboard/internal/observability/metrics"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

const testTenantID = snowflake.ID(81665301864255488)

type fakeAPIKeyService struct {
	verifyCalls int
	key         *apikeydomain.APIKey
}

func (f *fakeAPIKeyService) Issue(ctx context.Context, tenantID snowflake.ID, req apikeydomain.IssueRequest) (*apikeydomain.SecretResponse, error) {
	return &apikeydomain.SecretResponse{ID: "1", APIKey: "ib_live_test"}, nil
}

func (f *fakeAPIKeyService) List(ctx context.Context, tenantID snowflake.ID) ([]apikeydomain.Response, error) {
	return nil, nil
}

func (f *fakeAPIKeyService) Revoke(ctx context.Context, tenantID snowflake.ID, keyID snowflake.ID) error {
	return nil
}

func (f *fakeAPIKeyService) Verify(ctx context.Context, rawKey string) (*apikeydomain.APIKey, error) {
	f.verifyCalls++
	if f.key == nil {
		return nil, apikeydomain.ErrUnauthorized
	}
	return f.key, nil
}

type fakeUsageService struct {
	tracked  []usagedomain.TrackEventRequest
	metrics  *usagedomain.MetricsResponse
	snapshot *usagedomain.PeriodMetrics
}

func (f *fakeUsageService) TrackEvent(ctx context.Context, req usagedomain.TrackEventRequest) (*usagedomain.UsageEvent, error) {
	if !req.EventType.Valid() {
		return nil, usagedomain.ErrInvalidEventType
	}
	f.tracked = append(f.tracked, req)
	return &usagedomain.UsageEvent{
		ID:        snowflake.ID(1),
		TenantID:  req.TenantID,
		EventType: string(req.EventType),
		Period:    "2026-03",
	}, nil
}

func (f *fakeUsageService) GetMetrics(ctx context.Context, tenantID snowflake.ID, period string) (*usagedomain.MetricsResponse, error) {
	return f.metrics, nil
}

func (f *fakeUsageService) GetSnapshot(ctx context.Context, tenantID snowflake.ID, period string) (*usagedomain.PeriodMetrics, error) {
	return f.snapshot, nil
}

func (f *fakeUsageService) GetHistory(ctx context.Context, tenantID snowflake.ID, months int) ([]usagedomain.MetricsResponse, error) {
	return nil, nil
}

func (f *fakeUsageService) List(ctx context.Context, req usagedomain.ListEventsRequest) (usagedomain.ListEventsResponse, error) {
	return usagedomain.ListEventsResponse{Events: []usagedomain.UsageEvent{}}, nil
}

type fakeInvoiceService struct {
	invoice *invoicedomain.InvoiceData
	metrics *obsmetrics.Metrics
}

func (f *fakeInvoiceService) GenerateInvoiceData(ctx context.Context, tenantID snowflake.ID, period string, custom []invoicedomain.CustomCharge) (*invoicedomain.InvoiceData, error) {
	if f.invoice == nil {
		return nil, invoicedomain.ErrNoUsageData
	}
	// the real service records the generation metric itself
	f.metrics.RecordInvoiceGenerated(ctx, f.invoice.PlanID)
	return f.invoice, nil
}

type fakeTenantService struct{}

func (f *fakeTenantService) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (*tenantdomain.TenantResponse, error) {
	if req.Name == "" {
		return nil, tenantdomain.ErrInvalidName
	}
	return &tenantdomain.TenantResponse{ID: "1", Name: req.Name, Slug: "acme", PlanID: "starter"}, nil
}

func (f *fakeTenantService) GetByID(ctx context.Context, id snowflake.ID) (*tenantdomain.TenantResponse, error) {
	return &tenantdomain.TenantResponse{ID: id.String()}, nil
}

func (f *fakeTenantService) GetBySlug(ctx context.Context, slug string) (*tenantdomain.TenantResponse, error) {
	return nil, tenantdomain.ErrInvalidTenant
}

func (f *fakeTenantService) List(ctx context.Context) ([]tenantdomain.TenantResponse, error) {
	return nil, nil
}

func (f *fakeTenantService) ChangePlan(ctx context.Context, id snowflake.ID, planID string) (*tenantdomain.TenantResponse, error) {
	return &tenantdomain.TenantResponse{ID: id.String(), PlanID: planID}, nil
}

func (f *fakeTenantService) Resolve(ctx context.Context, id snowflake.ID) (*tenantdomain.Tenant, error) {
	return nil, tenantdomain.ErrInvalidTenant
}

func newTestServer(t *testing.T, apiKeys *fakeAPIKeyService, usage *fakeUsageService, invoices *fakeInvoiceService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:       engine,
		cfg:          config.Config{},
		tenantSvc:    &fakeTenantService{},
		apiKeySvc:    apiKeys,
		usageSvc:     usage,
		invoiceSvc:   invoices,
		alertChecker: alert.NewChecker(config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())),
	}
	srv.RegisterAPIRoutes()
	srv.RegisterAdminRoutes()
	return srv
}

func validKey() *apikeydomain.APIKey {
	return &apikeydomain.APIKey{
		ID:       snowflake.ID(7),
		TenantID: testTenantID,
		Scopes:   []string{apikeydomain.ScopeUsageWrite, apikeydomain.ScopeUsageRead},
	}
}

func TestTrackUsageEventRequiresAPIKey(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{}, &fakeUsageService{}, &fakeInvoiceService{})

	body := bytes.NewBufferString(`{"event_type":"api_call","payload":{"dataSize":100}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/usage/events", body)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTrackUsageEventResolvesTenantFromKey(t *testing.T) {
	usage := &fakeUsageService{}
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, usage, &fakeInvoiceService{})

	body := bytes.NewBufferString(`{"event_type":"api_call","payload":{"dataSize":100}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/usage/events", body)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, usage.tracked, 1)
	assert.Equal(t, testTenantID, usage.tracked[0].TenantID)
}

func TestTrackUsageEventRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, &fakeInvoiceService{})

	body := bytes.NewBufferString(`{"event_type":"page_view"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/usage/events", body)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
}

func TestWriteScopeCannotRead(t *testing.T) {
	key := validKey()
	key.Scopes = []string{apikeydomain.ScopeUsageWrite}
	srv := newTestServer(t, &fakeAPIKeyService{key: key}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/metrics", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUsageMetricsAbsentPeriodIs404(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/metrics?period=2020-01", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUsageAlertsEmptyWithoutSnapshot(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/alerts", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Alerts []alert.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Alerts)
}

func TestGetUsageAlertsWarnsNearLimit(t *testing.T) {
	usage := &fakeUsageService{
		snapshot: &usagedomain.PeriodMetrics{
			APICalls:         8500,
			MaxAPICalls:      10_000,
			MaxDataProcessed: 1_000_000_000,
			MaxStorage:       5_000_000_000,
		},
	}
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, usage, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage/alerts", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Alerts []alert.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, alert.MetricAPICalls, resp.Alerts[0].Metric)
}

func TestGetInvoiceNoUsageIs404(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/2020-01", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestGetInvoiceReturnsDocument(t *testing.T) {
	invoices := &fakeInvoiceService{
		invoice: &invoicedomain.InvoiceData{
			InvoiceNumber: "INV-202603-104857",
			Period:        "2026-03",
			PlanID:        "starter",
			GeneratedAt:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			Charges:       invoicedomain.Charges{Total: 31, TotalDisplay: "$31.00"},
		},
	}
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, invoices)

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/2026-03", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got invoicedomain.InvoiceData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "INV-202603-104857", got.InvoiceNumber)
	assert.Equal(t, "$31.00", got.Charges.TotalDisplay)
}

func newInvoiceCounter(t *testing.T) (*obsmetrics.Metrics, func() int64) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := obsmetrics.New(obsmetrics.Config{ServiceName: "test"}, provider)
	require.NoError(t, err)

	return m, func() int64 {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))

		var total int64
		for _, scope := range rm.ScopeMetrics {
			for _, met := range scope.Metrics {
				if met.Name != "insightboard_invoices_generated_total" {
					continue
				}
				sum, ok := met.Data.(metricdata.Sum[int64])
				if !ok {
					continue
				}
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
		return total
	}
}

func TestInvoiceGenerationCountedOnce(t *testing.T) {
	metrics, generated := newInvoiceCounter(t)
	invoices := &fakeInvoiceService{
		invoice: &invoicedomain.InvoiceData{
			InvoiceNumber: "INV-202603-104857",
			Period:        "2026-03",
			PlanID:        "starter",
			Charges:       invoicedomain.Charges{Total: 29, TotalDisplay: "$29.00"},
		},
		metrics: metrics,
	}
	srv := newTestServer(t, &fakeAPIKeyService{key: validKey()}, &fakeUsageService{}, invoices)
	srv.obsMetrics = metrics

	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/2026-03", nil)
	req.Header.Set("Authorization", "Bearer ib_live_test")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), generated())
}

func TestCreateTenantValidation(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodPost, "/admin/tenants", bytes.NewBufferString(`{"name":""}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTenant(t *testing.T) {
	srv := newTestServer(t, &fakeAPIKeyService{}, &fakeUsageService{}, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodPost, "/admin/tenants", bytes.NewBufferString(`{"name":"Acme","plan_id":"starter"}`))
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tenantdomain.TenantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Acme", resp.Name)
}
