// File path: internal/search/config.go
package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config carries the tunable constants of the query pipeline. The
// duplicate threshold and ranking weights have no single correct
// value; they are exposed here rather than hardcoded so deployments
// can adjust them against their own corpus.
type Config struct {
	TopK             int     `json:"top_k"`
	OverFetch        int     `json:"over_fetch"`
	DupThreshold     float64 `json:"dup_threshold"`
	WeightSimilarity float64 `json:"weight_similarity"`
	WeightRating     float64 `json:"weight_rating"`
	WeightPrice      float64 `json:"weight_price"`
	PriceOutlier     float64 `json:"price_outlier_factor"`
	BaseCurrency     string  `json:"base_currency"`
	MaxAlternatives  int     `json:"max_alternatives"`

	// ReasoningRetries is a pointer so an explicit zero (no retry)
	// stays distinguishable from an unset field.
	ReasoningRetries *int `json:"reasoning_retries"`

	ReasoningTimeout       time.Duration `json:"-"`
	ReasoningTimeoutString string        `json:"reasoning_timeout"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.TopK > 0 {
		result.TopK = override.TopK
	}
	if override.OverFetch > 0 {
		result.OverFetch = override.OverFetch
	}
	if override.DupThreshold > 0 {
		result.DupThreshold = override.DupThreshold
	}
	if override.WeightSimilarity > 0 {
		result.WeightSimilarity = override.WeightSimilarity
	}
	if override.WeightRating > 0 {
		result.WeightRating = override.WeightRating
	}
	if override.WeightPrice > 0 {
		result.WeightPrice = override.WeightPrice
	}
	if override.PriceOutlier > 0 {
		result.PriceOutlier = override.PriceOutlier
	}
	if strings.TrimSpace(override.BaseCurrency) != "" {
		result.BaseCurrency = strings.ToUpper(strings.TrimSpace(override.BaseCurrency))
	}
	if override.MaxAlternatives > 0 {
		result.MaxAlternatives = override.MaxAlternatives
	}
	if override.ReasoningRetries != nil {
		result.ReasoningRetries = override.ReasoningRetries
	}
	if override.ReasoningTimeout > 0 {
		result.ReasoningTimeout = override.ReasoningTimeout
	}
	if strings.TrimSpace(override.ReasoningTimeoutString) != "" {
		result.ReasoningTimeoutString = strings.TrimSpace(override.ReasoningTimeoutString)
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(loadConfigEnv())
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 6
	}
	if c.OverFetch <= 0 {
		c.OverFetch = 3
	}
	if c.DupThreshold <= 0 {
		c.DupThreshold = 0.05
	}
	if c.WeightSimilarity <= 0 {
		c.WeightSimilarity = 0.6
	}
	if c.WeightRating <= 0 {
		c.WeightRating = 0.25
	}
	if c.WeightPrice <= 0 {
		c.WeightPrice = 0.15
	}
	if c.PriceOutlier <= 0 {
		c.PriceOutlier = 3
	}
	if strings.TrimSpace(c.BaseCurrency) == "" {
		c.BaseCurrency = "INR"
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = 5
	}
	if c.ReasoningRetries == nil || *c.ReasoningRetries < 0 {
		retries := 1
		c.ReasoningRetries = &retries
	}
	if c.ReasoningTimeout <= 0 {
		if c.ReasoningTimeoutString != "" {
			if parsed, err := time.ParseDuration(c.ReasoningTimeoutString); err == nil {
				c.ReasoningTimeout = parsed
			}
		}
		if c.ReasoningTimeout <= 0 {
			c.ReasoningTimeout = 20 * time.Second
		}
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read search config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse search config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() Config {
	cfg := Config{}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_TOP_K")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.TopK = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_OVER_FETCH")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.OverFetch = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_DUP_THRESHOLD")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DupThreshold = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_WEIGHT_SIMILARITY")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WeightSimilarity = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_WEIGHT_RATING")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WeightRating = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_WEIGHT_PRICE")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WeightPrice = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_PRICE_OUTLIER")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PriceOutlier = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_BASE_CURRENCY")); v != "" {
		cfg.BaseCurrency = v
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_MAX_ALTERNATIVES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.MaxAlternatives = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_REASONING_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			cfg.ReasoningRetries = &parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARTFINDER_SEARCH_REASONING_TIMEOUT")); v != "" {
		cfg.ReasoningTimeoutString = v
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.ReasoningTimeout = parsed
		}
	}
	return cfg
}
