package normalization

import (
	"os"
	"strconv"
)

// Config carries the thresholds shared by the matching and learning layers.
// GroupingThreshold is expected to sit at or below MatchThreshold, since
// candidate clustering tolerates more textual variance than matching against
// an already-canonical product, but that relationship is not enforced.
type Config struct {
	// MatchThreshold accepts a fuzzy product match for names at or above
	// ShortNameCutoff runes; ShortMatchThreshold applies below the cutoff,
	// where trigram similarity is noisier.
	MatchThreshold      float64
	ShortMatchThreshold float64
	ShortNameCutoff     int

	// GroupingThreshold clusters user confirmations into learning candidates.
	GroupingThreshold float64

	// AcceptanceThreshold is the confirmation count at which a candidate is
	// promoted to a canonical product.
	AcceptanceThreshold int

	// AIConfidenceThreshold is the minimum classifier confidence for an
	// AI-assigned category to be accepted.
	AIConfidenceThreshold float64

	FallbackCategoryName string
}

func DefaultConfig() Config {
	return Config{
		MatchThreshold:        0.55,
		ShortMatchThreshold:   0.75,
		ShortNameCutoff:       5,
		GroupingThreshold:     0.45,
		AcceptanceThreshold:   5,
		AIConfidenceThreshold: 0.60,
		FallbackCategoryName:  "Other",
	}
}

// LoadConfigFromEnv starts from the defaults and overrides from environment
// variables where set.
func LoadConfigFromEnv() Config {
	config := DefaultConfig()

	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.MatchThreshold = f
		}
	}
	if v := os.Getenv("SHORT_MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.ShortMatchThreshold = f
		}
	}
	if v := os.Getenv("SHORT_NAME_CUTOFF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.ShortNameCutoff = n
		}
	}
	if v := os.Getenv("GROUPING_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.GroupingThreshold = f
		}
	}
	if v := os.Getenv("ACCEPTANCE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.AcceptanceThreshold = n
		}
	}
	if v := os.Getenv("AI_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.AIConfidenceThreshold = f
		}
	}
	if v := os.Getenv("FALLBACK_CATEGORY"); v != "" {
		config.FallbackCategoryName = v
	}

	return config
}

// EffectiveMatchThreshold picks the matching threshold for a given cleaned
// name, strict for short names.
func (c Config) EffectiveMatchThreshold(name string) float64 {
	if len([]rune(name)) < c.ShortNameCutoff {
		return c.ShortMatchThreshold
	}
	return c.MatchThreshold
}
