package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var suffixPadRe = regexp.MustCompile(`\{SUFFIX(\d+)\}`)

const DefaultInvoiceNumberTemplate = "INV-{PERIOD}-{SUFFIX6}"

// FormatInvoiceNumber formats a human-readable invoice number based on
// a template, the billing period and the generation time.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic for a given (template, period, generatedAt)
func FormatInvoiceNumber(
	template string,
	period string,
	generatedAt time.Time,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if period == "" {
		return "", fmt.Errorf("invoice period is empty")
	}

	out := template

	// Period token: YYYY-MM collapsed to YYYYMM
	out = strings.ReplaceAll(out, "{PERIOD}", strings.ReplaceAll(period, "-", ""))

	// Padded suffix: trailing digits of the generation timestamp
	nanos := generatedAt.UnixNano()
	out = suffixPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := suffixPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m // should never happen
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		digits := strconv.FormatInt(nanos, 10)
		if len(digits) > width {
			digits = digits[len(digits)-width:]
		}
		return fmt.Sprintf("%0*s", width, digits)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}
