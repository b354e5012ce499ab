package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice *invoicedomain.InvoiceData) (io.Reader, error) {
	if invoice == nil {
		return nil, errors.New("invoice data is required")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	// Invoice meta
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Billing period: "+invoice.Period, props.Text{Top: 4}),
			text.New("Generated: "+invoice.GeneratedAt.Format("2006-01-02 15:04 UTC"), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.TenantName, props.Text{Top: 5}),
			text.New("Plan: "+invoice.PlanID, props.Text{Top: 9}),
		),
	)

	// Total due
	m.AddRow(15,
		text.NewCol(12, "Total due: "+invoice.Charges.TotalDisplay, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	// Table header
	m.AddRow(10,
		text.NewCol(7, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Quantity", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range invoice.LineItems {
		m.AddRow(12,
			text.NewCol(7, item.Description, props.Text{Size: 9}),
			text.NewCol(3, item.QuantityDisplay, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.AmountDisplay, props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Footer totals
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("$%.2f", invoice.Charges.BaseCost+invoice.Charges.OverageCost), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, invoice.Charges.TotalDisplay, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
