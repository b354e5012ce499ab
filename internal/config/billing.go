package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tunable billing constants: per-plan base fees,
// per-unit overage rates, and the usage alert threshold. Values are
// dollars; rates are dollars per unit (call or byte).
type BillingConfig struct {
	BaseCosts      map[string]float64 `mapstructure:"baseCosts"`
	OverageRates   OverageRates       `mapstructure:"overageRates"`
	AlertThreshold float64            `mapstructure:"alertThreshold"`
}

type OverageRates struct {
	APICallsPerCall      float64 `mapstructure:"apiCallsPerCall"`
	DataProcessedPerByte float64 `mapstructure:"dataProcessedPerByte"`
	StoragePerByte       float64 `mapstructure:"storagePerByte"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		BaseCosts: map[string]float64{
			"starter":      29,
			"professional": 99,
			"enterprise":   299,
		},
		OverageRates: OverageRates{
			APICallsPerCall:      0.001,
			DataProcessedPerByte: 0.0000001,
			StoragePerByte:       0.00000005,
		},
		AlertThreshold: 0.8,
	}
}

// BaseCost returns the monthly base fee for the plan, or zero for an
// unknown plan id.
func (c BillingConfig) BaseCost(planID string) float64 {
	return c.BaseCosts[strings.ToLower(strings.TrimSpace(planID))]
}

// BillingConfigHolder exposes the current billing config and swaps it
// atomically on file reload.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder wraps a fixed config, for tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/insightboard/config") // Volume-mounted config
	v.AddConfigPath("/etc/insightboard")            // System config
	v.AddConfigPath(".")                            // Current directory (dev mode)

	v.SetEnvPrefix("INSIGHTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.baseCosts", defaults.BaseCosts)
	v.SetDefault("billing.overageRates.apiCallsPerCall", defaults.OverageRates.APICallsPerCall)
	v.SetDefault("billing.overageRates.dataProcessedPerByte", defaults.OverageRates.DataProcessedPerByte)
	v.SetDefault("billing.overageRates.storagePerByte", defaults.OverageRates.StoragePerByte)
	v.SetDefault("billing.alertThreshold", defaults.AlertThreshold)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if len(cfg.BaseCosts) == 0 {
		return errors.New("billing.baseCosts cannot be empty")
	}
	for plan, cost := range cfg.BaseCosts {
		if cost < 0 {
			return errors.New("billing.baseCosts." + plan + " cannot be negative")
		}
	}
	if cfg.OverageRates.APICallsPerCall < 0 ||
		cfg.OverageRates.DataProcessedPerByte < 0 ||
		cfg.OverageRates.StoragePerByte < 0 {
		return errors.New("billing.overageRates cannot be negative")
	}
	if cfg.AlertThreshold <= 0 || cfg.AlertThreshold >= 1 {
		return errors.New("billing.alertThreshold must be between 0 and 1")
	}
	return nil
}
