package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("tenant_id", "t1"),
		attribute.String("customer_email", "leak@example.com"),
		attribute.String("event_type", "api_call"),
	)

	keys := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		keys = append(keys, string(attr.Key))
	}

	assert.ElementsMatch(t, []string{"tenant_id", "event_type"}, keys)
}

func TestFilterAttributesEmpty(t *testing.T) {
	assert.Empty(t, FilterAttributes())
}
