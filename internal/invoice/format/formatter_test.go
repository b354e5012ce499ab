package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	generatedAt := time.Date(2026, 3, 15, 10, 30, 0, 123456789, time.UTC)

	number, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "2026-03", generatedAt)
	require.NoError(t, err)
	assert.Regexp(t, `^INV-202603-\d{6}$`, number)

	nanos := generatedAt.UnixNano()
	assert.Contains(t, number, formatTail(nanos, 6))
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	now := time.Now()

	_, err := FormatInvoiceNumber("", "2026-03", now)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, "", now)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("INV-{UNKNOWN}", "2026-03", now)
	assert.Error(t, err)
}

func formatTail(nanos int64, width int) string {
	digits := []byte{}
	for nanos > 0 && len(digits) < width {
		digits = append([]byte{byte('0' + nanos%10)}, digits...)
		nanos /= 10
	}
	return string(digits)
}
