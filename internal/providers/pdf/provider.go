// Package pdf renders invoice documents for download.
package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, data *invoicedomain.InvoiceData) (io.Reader, error)
}
