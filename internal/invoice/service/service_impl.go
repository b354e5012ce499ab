package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/insightboard/insightboard/internal/billing"
	"github.com/insightboard/insightboard/internal/clock"
	"github.com/insightboard/insightboard/internal/cloudmetrics"
	"github.com/insightboard/insightboard/internal/config"
	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
	"github.com/insightboard/insightboard/internal/invoice/format"
	obsmetrics "github.com/insightboard/insightboard/internal/observability/metrics"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const bytesPerGB = 1_000_000_000

type ServiceParam struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	TenantSvc     tenantdomain.Service
	UsageSvc      usagedomain.Service
	BillingConfig *config.BillingConfigHolder
	ObsMetrics    *obsmetrics.Metrics        `optional:"true"`
	Accounting    *cloudmetrics.CloudMetrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	tenantSvc  tenantdomain.Service
	usageSvc   usagedomain.Service
	billingCfg *config.BillingConfigHolder
	obsMetrics *obsmetrics.Metrics
	accounting *cloudmetrics.CloudMetrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:        p.Log.Named("invoice.service"),
		clock:      p.Clock,
		tenantSvc:  p.TenantSvc,
		usageSvc:   p.UsageSvc,
		billingCfg: p.BillingConfig,
		obsMetrics: p.ObsMetrics,
		accounting: p.Accounting,
	}
}

func (s *Service) GenerateInvoiceData(
	ctx context.Context,
	tenantID snowflake.ID,
	period string,
	custom []invoicedomain.CustomCharge,
) (*invoicedomain.InvoiceData, error) {
	if tenantID == 0 {
		return nil, invoicedomain.ErrInvalidTenant
	}
	if period == "" {
		period = clock.CurrentPeriod(s.clock)
	}
	if !clock.ValidPeriod(period) {
		return nil, invoicedomain.ErrInvalidPeriod
	}
	for _, charge := range custom {
		if strings.TrimSpace(charge.Description) == "" || charge.Amount < 0 ||
			charge.Quantity < 0 || charge.UnitPrice < 0 {
			return nil, invoicedomain.ErrInvalidCharge
		}
	}

	tenant, err := s.tenantSvc.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.usageSvc.GetSnapshot(ctx, tenantID, period)
	if err != nil {
		s.log.Error("invoice snapshot load failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period),
			zap.Error(err),
		)
		return nil, err
	}
	if snapshot == nil {
		return nil, invoicedomain.ErrNoUsageData
	}

	cfg := s.billingCfg.Get()
	overages, charges := billing.ComputeCharges(snapshot, cfg)

	items := []invoicedomain.LineItem{{
		Type:          invoicedomain.ItemTypeBase,
		Description:   fmt.Sprintf("Base subscription (%s plan)", snapshot.PlanID),
		Amount:        charges.BaseCost,
		AmountDisplay: formatUSD(charges.BaseCost),
	}}

	if overages.APICalls > 0 {
		amount := float64(overages.APICalls) * cfg.OverageRates.APICallsPerCall
		items = append(items, invoicedomain.LineItem{
			Type:            invoicedomain.ItemTypeOverage,
			Description:     fmt.Sprintf("API call overage (%s calls)", formatCount(overages.APICalls)),
			Metric:          "api_calls",
			Quantity:        overages.APICalls,
			QuantityDisplay: formatCount(overages.APICalls) + " calls",
			Amount:          amount,
			AmountDisplay:   formatUSD(amount),
		})
	}
	if overages.DataProcessed > 0 {
		amount := float64(overages.DataProcessed) * cfg.OverageRates.DataProcessedPerByte
		items = append(items, invoicedomain.LineItem{
			Type:            invoicedomain.ItemTypeOverage,
			Description:     fmt.Sprintf("Data processing overage (%s)", formatGB(overages.DataProcessed)),
			Metric:          "data_processed",
			Quantity:        overages.DataProcessed,
			QuantityDisplay: formatGB(overages.DataProcessed),
			Amount:          amount,
			AmountDisplay:   formatUSD(amount),
		})
	}
	if overages.Storage > 0 {
		amount := float64(overages.Storage) * cfg.OverageRates.StoragePerByte
		items = append(items, invoicedomain.LineItem{
			Type:            invoicedomain.ItemTypeOverage,
			Description:     fmt.Sprintf("Storage overage (%s)", formatGB(overages.Storage)),
			Metric:          "storage",
			Quantity:        overages.Storage,
			QuantityDisplay: formatGB(overages.Storage),
			Amount:          amount,
			AmountDisplay:   formatUSD(amount),
		})
	}

	customCost := 0.0
	for _, charge := range custom {
		customCost += charge.Amount
		item := invoicedomain.LineItem{
			Type:          invoicedomain.ItemTypeCustom,
			Description:   strings.TrimSpace(charge.Description),
			UnitPrice:     charge.UnitPrice,
			Amount:        charge.Amount,
			AmountDisplay: formatUSD(charge.Amount),
		}
		if charge.Quantity > 0 {
			item.Quantity = charge.Quantity
			item.QuantityDisplay = formatCount(charge.Quantity)
		}
		items = append(items, item)
	}

	now := s.clock.Now().UTC()
	number, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, period, now)
	if err != nil {
		return nil, err
	}

	total := charges.TotalCost + customCost
	data := &invoicedomain.InvoiceData{
		InvoiceNumber: number,
		TenantID:      tenant.ID.String(),
		TenantName:    tenant.Name,
		PlanID:        snapshot.PlanID,
		Period:        period,
		GeneratedAt:   now,
		LineItems:     items,
		Charges: invoicedomain.Charges{
			BaseCost:     charges.BaseCost,
			OverageCost:  charges.OverageCost,
			CustomCost:   customCost,
			Total:        total,
			TotalDisplay: formatUSD(total),
		},
		Overages: overages,
		Usage:    *snapshot,
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordInvoiceGenerated(ctx, snapshot.PlanID)
	}
	if s.accounting != nil {
		s.accounting.RecordInvoiceGenerated(tenant.Slug)
	}

	s.log.Info("invoice generated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("period", period),
		zap.String("invoice_number", number),
	)

	return data, nil
}

func formatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func formatGB(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/bytesPerGB)
}

// formatCount renders an integer with thousands separators.
func formatCount(value int64) string {
	raw := strconv.FormatInt(value, 10)
	negative := strings.HasPrefix(raw, "-")
	if negative {
		raw = raw[1:]
	}

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
