package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var defaultMilkPricePerLiter = decimal.NewFromInt(45)

// PricingConfig holds the fallback unit prices used when a feed request
// cannot be resolved against the live inventory. Historical requests may
// reference feed types that were retired from the catalog; pricing them
// from this table keeps the workflow functional.
type PricingConfig struct {
	// FallbackPrices maps a feed type identifier (display name or slug)
	// to a unit price.
	FallbackPrices map[string]decimal.Decimal `mapstructure:"fallbackPrices"`

	// DefaultPrice applies when the identifier is missing from the table.
	DefaultPrice decimal.Decimal `mapstructure:"defaultPrice"`
}

func DefaultPricingConfig() PricingConfig {
	prices := map[string]int64{
		"dairy_meal":                45,
		"pollard_wheat_pollard":     35,
		"maize_germ":                40,
		"maize_bran":                30,
		"wheat_bran":                32,
		"cottonseed_cake":           55,
		"sunflower_cake":            50,
		"fish_meal":                 80,
		"soybean_meal":              65,
		"molasses":                  25,
		"mineral_supplement":        70,
		"salt":                      15,
		"lucerne_meal":              45,
		"urea-molasses_block":       30,
		"yeast_probiotic_additives": 90,
		"protein_concentrate":       75,
	}
	table := make(map[string]decimal.Decimal, len(prices))
	for key, price := range prices {
		table[key] = decimal.NewFromInt(price)
	}
	return PricingConfig{
		FallbackPrices: table,
		DefaultPrice:   decimal.NewFromInt(50),
	}
}

// FallbackPrice resolves a unit price for a feed type identifier.
// Lookup is case-insensitive and tolerates display names ("Dairy Meal")
// as well as slugs ("dairy_meal").
func (c PricingConfig) FallbackPrice(identifier string) decimal.Decimal {
	key := normalizePriceKey(identifier)
	if price, ok := c.FallbackPrices[key]; ok {
		return price
	}
	return c.DefaultPrice
}

// FallbackPriceFor tries each identifier in order before falling back
// to the default price.
func (c PricingConfig) FallbackPriceFor(identifiers ...string) decimal.Decimal {
	for _, identifier := range identifiers {
		if strings.TrimSpace(identifier) == "" {
			continue
		}
		if price, ok := c.FallbackPrices[normalizePriceKey(identifier)]; ok {
			return price
		}
	}
	return c.DefaultPrice
}

func normalizePriceKey(identifier string) string {
	key := strings.ToLower(strings.TrimSpace(identifier))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "(", "")
	key = strings.ReplaceAll(key, ")", "")
	key = strings.ReplaceAll(key, "/", "_")
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return key
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/maziwa/config")
	v.AddConfigPath("/etc/maziwa")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MAZIWA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PricingConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultPricingConfig())
		return holder, nil
	}

	cfg, err := unmarshalPricing(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalPricing(v)
		if err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed pricing table, bypassing the
// config file watcher.
func NewStaticPricingHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func unmarshalPricing(v *viper.Viper) (PricingConfig, error) {
	var raw struct {
		FallbackPrices map[string]string `mapstructure:"fallbackPrices"`
		DefaultPrice   string            `mapstructure:"defaultPrice"`
	}
	if err := v.UnmarshalKey("pricing", &raw); err != nil {
		return PricingConfig{}, err
	}
	if len(raw.FallbackPrices) == 0 {
		return PricingConfig{}, errors.New("pricing.fallbackPrices cannot be empty")
	}

	cfg := PricingConfig{FallbackPrices: make(map[string]decimal.Decimal, len(raw.FallbackPrices))}
	for key, value := range raw.FallbackPrices {
		price, err := decimal.NewFromString(value)
		if err != nil || price.IsNegative() {
			return PricingConfig{}, errors.New("pricing.fallbackPrices contains an invalid price for " + key)
		}
		cfg.FallbackPrices[normalizePriceKey(key)] = price
	}

	cfg.DefaultPrice = DefaultPricingConfig().DefaultPrice
	if strings.TrimSpace(raw.DefaultPrice) != "" {
		price, err := decimal.NewFromString(raw.DefaultPrice)
		if err != nil || price.IsNegative() {
			return PricingConfig{}, errors.New("pricing.defaultPrice is invalid")
		}
		cfg.DefaultPrice = price
	}

	return cfg, nil
}
