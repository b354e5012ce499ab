package pdf

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
)

func TestGenerateInvoicePDF(t *testing.T) {
	p := New()

	data := &invoicedomain.InvoiceData{
		InvoiceNumber: "INV-202603-104857",
		TenantID:      "81665301864255488",
		TenantName:    "Acme Analytics",
		PlanID:        "starter",
		Period:        "2026-03",
		GeneratedAt:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		LineItems: []invoicedomain.LineItem{
			{Type: invoicedomain.ItemTypeBase, Description: "Starter plan base fee", AmountDisplay: "$29.00", Amount: 29},
			{Type: invoicedomain.ItemTypeOverage, Description: "API calls overage", Metric: "api_calls", Quantity: 2000, QuantityDisplay: "2,000 calls", Amount: 2, AmountDisplay: "$2.00"},
		},
		Charges: invoicedomain.Charges{
			BaseCost:     29,
			OverageCost:  2,
			Total:        31,
			TotalDisplay: "$31.00",
		},
	}

	r, err := p.GenerateInvoice(context.Background(), data)
	require.NoError(t, err)

	buf, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.NotEmpty(t, buf)
	assert.Equal(t, "%PDF", string(buf[:4]))
}

func TestGenerateInvoicePDFNilData(t *testing.T) {
	p := New()

	_, err := p.GenerateInvoice(context.Background(), nil)
	assert.Error(t, err)
}
