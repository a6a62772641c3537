package normalization

import (
	"context"

	"paragon-backend/entities"
	"paragon-backend/pkg/product"
)

type (
	// FuzzyMatcher searches the canonical product dictionary by trigram
	// similarity. Short names use a stricter threshold, since trigram scores
	// on short strings produce more false positives.
	FuzzyMatcher struct {
		products product.ProductRepository
		config   Config
	}

	FuzzyMatch struct {
		Product *entities.Product
		Score   float64
	}
)

func NewFuzzyMatcher(products product.ProductRepository, config Config) *FuzzyMatcher {
	return &FuzzyMatcher{products: products, config: config}
}

// Match returns the highest-scoring product at or above the effective
// threshold for the cleaned text, or nil when nothing scores high enough.
func (m *FuzzyMatcher) Match(ctx context.Context, cleaned string) (*FuzzyMatch, error) {
	products, err := m.products.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	threshold := m.config.EffectiveMatchThreshold(cleaned)

	var best *FuzzyMatch
	for _, p := range products {
		score := TrigramSimilarity(cleaned, p.Name)
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &FuzzyMatch{Product: p, Score: score}
		}
	}

	return best, nil
}
