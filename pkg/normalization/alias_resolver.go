package normalization

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"paragon-backend/entities"
	"paragon-backend/pkg/product"
)

// AliasResolver looks a cleaned item text up against the learned alias table.
// Personalization outranks generality: a user's own correction at a specific
// shop wins over a shop-wide alias, which wins over a global one.
type AliasResolver struct {
	products product.ProductRepository
}

func NewAliasResolver(products product.ProductRepository) *AliasResolver {
	return &AliasResolver{products: products}
}

// Resolve returns the canonical product of the best-scoped alias matching the
// cleaned text, or nil when all three tiers miss.
func (r *AliasResolver) Resolve(ctx context.Context, cleaned string, shopID, userID *uuid.UUID) (*entities.Product, error) {
	rawNameKey := strings.ToLower(cleaned)

	if shopID != nil && userID != nil {
		alias, err := r.products.FindAliasUserShop(ctx, rawNameKey, *shopID, *userID)
		if err != nil {
			return nil, err
		}
		if alias != nil && alias.Product != nil {
			return alias.Product, nil
		}
	}

	if shopID != nil {
		alias, err := r.products.FindAliasShop(ctx, rawNameKey, *shopID)
		if err != nil {
			return nil, err
		}
		if alias != nil && alias.Product != nil {
			return alias.Product, nil
		}
	}

	alias, err := r.products.FindAliasGlobal(ctx, rawNameKey)
	if err != nil {
		return nil, err
	}
	if alias != nil && alias.Product != nil {
		return alias.Product, nil
	}

	return nil, nil
}
