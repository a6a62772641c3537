package normalization

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"paragon-backend/entities"
	"paragon-backend/pkg/ocr"
	"paragon-backend/pkg/product"
)

// Confidence dampening factors for items that never matched a product.
const (
	aiCategoryFactor       = 0.7
	fallbackCategoryFactor = 0.5
)

type (
	NormalizationService interface {
		NormalizeItem(ctx context.Context, raw ocr.RawLineItem, opts NormalizeOptions) (NormalizedItem, error)
	}

	NormalizeOptions struct {
		ShopID   *uuid.UUID
		ShopName string
		UserID   *uuid.UUID
		// PersistAliases records successful fuzzy matches as aliases, so the
		// dictionary learns without waiting for explicit user confirmation.
		PersistAliases bool
	}

	NormalizedItem struct {
		Name       string
		Quantity   decimal.Decimal
		UnitPrice  *decimal.Decimal
		TotalPrice decimal.Decimal
		CategoryID uuid.UUID
		ProductID  *uuid.UUID
		Confidence float64
		// Confident=false routes the receipt to manual verification.
		Confident bool
	}

	normalizationService struct {
		products product.ProductRepository
		aliases  *AliasResolver
		matcher  *FuzzyMatcher
		assigner *CategoryAssigner
		config   Config
		logger   *logrus.Logger
	}
)

func NewNormalizationService(
	products product.ProductRepository,
	aliases *AliasResolver,
	matcher *FuzzyMatcher,
	assigner *CategoryAssigner,
	config Config,
	logger *logrus.Logger,
) NormalizationService {
	return &normalizationService{
		products: products,
		aliases:  aliases,
		matcher:  matcher,
		assigner: assigner,
		config:   config,
		logger:   logger,
	}
}

func (s *normalizationService) NormalizeItem(ctx context.Context, raw ocr.RawLineItem, opts NormalizeOptions) (NormalizedItem, error) {
	cleaned := Clean(raw.Name)

	item := NormalizedItem{
		Quantity:   raw.Quantity,
		UnitPrice:  raw.UnitPrice,
		TotalPrice: raw.TotalPrice,
	}

	if cleaned == "" {
		// Nothing left to resolve; keep the original OCR text as the display
		// name and route to verification.
		fallback, err := s.products.GetOrCreateCategory(ctx, s.config.FallbackCategoryName)
		if err != nil {
			return NormalizedItem{}, err
		}
		item.Name = raw.Name
		item.CategoryID = fallback.ID
		item.Confidence = 0
		item.Confident = false
		return item, nil
	}

	matched, err := s.aliases.Resolve(ctx, cleaned, opts.ShopID, opts.UserID)
	if err != nil {
		return NormalizedItem{}, err
	}

	if matched == nil {
		match, err := s.matcher.Match(ctx, cleaned)
		if err != nil {
			return NormalizedItem{}, err
		}
		if match != nil {
			matched = match.Product
			if opts.PersistAliases {
				s.persistAlias(ctx, cleaned, matched, opts)
			}
		}
	}

	assignment, err := s.assigner.Assign(ctx, CategoryInput{
		CleanedText: cleaned,
		Suggestion:  raw.CategorySuggestion,
		ShopName:    opts.ShopName,
		Product:     matched,
	})
	if err != nil {
		return NormalizedItem{}, err
	}
	item.CategoryID = assignment.CategoryID

	switch {
	case matched != nil:
		item.Name = matched.Name
		productID := matched.ID
		item.ProductID = &productID
		item.Confidence = 1.0
		item.Confident = true
	case assignment.Source == CategorySourceAI:
		item.Name = cleaned
		item.Confidence = raw.Confidence * aiCategoryFactor
		item.Confident = true
	default:
		item.Name = cleaned
		item.Confidence = raw.Confidence * fallbackCategoryFactor
		item.Confident = false
	}

	return item, nil
}

// persistAlias records a fuzzy hit as an alias. Failures here only degrade
// future matching, so they are logged and swallowed.
func (s *normalizationService) persistAlias(ctx context.Context, cleaned string, matched *entities.Product, opts NormalizeOptions) {
	alias := &entities.Alias{
		ID:        uuid.New(),
		RawName:   cleaned,
		ProductID: matched.ID,
		ShopID:    opts.ShopID,
		UserID:    opts.UserID,
	}
	if err := s.products.UpsertAlias(ctx, alias); err != nil {
		s.logger.WithFields(logrus.Fields{
			"module":     "normalization",
			"raw_name":   cleaned,
			"product_id": matched.ID.String(),
		}).Warn("failed to persist alias from fuzzy match: ", err)
	}
}
