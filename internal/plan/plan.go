// Package plan holds the static plan catalog: quota limits per plan tier.
package plan

import "strings"

const (
	Starter      = "starter"
	Professional = "professional"
	Enterprise   = "enterprise"
)

// Unlimited marks a quota with no cap. It never produces an overage
// or a utilization percentage.
const Unlimited int64 = -1

// Limits is the quota set for a plan tier.
type Limits struct {
	APICalls      int64 `json:"api_calls"`
	DataProcessed int64 `json:"data_processed"` // bytes
	Storage       int64 `json:"storage"`        // bytes
	Users         int64 `json:"users"`
	Dashboards    int64 `json:"dashboards"`
}

var catalog = map[string]Limits{
	Starter: {
		APICalls:      10_000,
		DataProcessed: 1_000_000_000, // 1 GB
		Storage:       5_000_000_000, // 5 GB
		Users:         5,
		Dashboards:    10,
	},
	Professional: {
		APICalls:      100_000,
		DataProcessed: 10_000_000_000, // 10 GB
		Storage:       50_000_000_000, // 50 GB
		Users:         25,
		Dashboards:    50,
	},
	Enterprise: {
		APICalls:      Unlimited,
		DataProcessed: Unlimited,
		Storage:       Unlimited,
		Users:         Unlimited,
		Dashboards:    Unlimited,
	},
}

// LimitsFor returns the quota set for a plan id.
func LimitsFor(planID string) (Limits, bool) {
	limits, ok := catalog[Normalize(planID)]
	return limits, ok
}

// Valid reports whether planID names a known plan tier.
func Valid(planID string) bool {
	_, ok := catalog[Normalize(planID)]
	return ok
}

// Normalize canonicalizes a plan id for lookup.
func Normalize(planID string) string {
	return strings.ToLower(strings.TrimSpace(planID))
}

// IDs lists the known plan tiers in ascending price order.
func IDs() []string {
	return []string{Starter, Professional, Enterprise}
}
