package normalization

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"paragon-backend/entities"
	"paragon-backend/pkg/classifier"
	"paragon-backend/pkg/product"
)

type CategorySource string

const (
	CategorySourceProduct  CategorySource = "product"
	CategorySourceAI       CategorySource = "ai"
	CategorySourceFallback CategorySource = "fallback"
)

type (
	// CategoryAssigner resolves an expense category through a priority chain:
	// the matched product's own category, then the AI classifier, then the
	// fallback category. Classification is best-effort and never aborts the
	// caller; only persistence failures propagate.
	CategoryAssigner struct {
		products   product.ProductRepository
		classifier classifier.CategoryClassifier
		config     Config
		logger     *logrus.Logger
	}

	CategoryInput struct {
		CleanedText string
		Suggestion  string
		ShopName    string
		Product     *entities.Product
	}

	CategoryAssignment struct {
		CategoryID uuid.UUID
		Source     CategorySource
	}
)

func NewCategoryAssigner(
	products product.ProductRepository,
	categoryClassifier classifier.CategoryClassifier,
	config Config,
	logger *logrus.Logger,
) *CategoryAssigner {
	return &CategoryAssigner{
		products:   products,
		classifier: categoryClassifier,
		config:     config,
		logger:     logger,
	}
}

func (a *CategoryAssigner) Assign(ctx context.Context, input CategoryInput) (CategoryAssignment, error) {
	if input.Product != nil && input.Product.CategoryID != nil {
		_, err := a.products.GetCategoryByID(ctx, *input.Product.CategoryID)
		if err == nil {
			return CategoryAssignment{CategoryID: *input.Product.CategoryID, Source: CategorySourceProduct}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return CategoryAssignment{}, err
		}
		// Dangling category reference; fall through to classification.
	}

	if assignment, ok := a.classify(ctx, input); ok {
		return assignment, nil
	}

	fallback, err := a.products.GetOrCreateCategory(ctx, a.config.FallbackCategoryName)
	if err != nil {
		return CategoryAssignment{}, err
	}
	return CategoryAssignment{CategoryID: fallback.ID, Source: CategorySourceFallback}, nil
}

func (a *CategoryAssigner) classify(ctx context.Context, input CategoryInput) (CategoryAssignment, bool) {
	if a.classifier == nil {
		return CategoryAssignment{}, false
	}

	categories, err := a.products.GetCategories(ctx)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"module": "normalization",
			"text":   input.CleanedText,
		}).Warn("failed to load categories for classification: ", err)
		return CategoryAssignment{}, false
	}
	if len(categories) == 0 {
		return CategoryAssignment{}, false
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	result, err := a.classifier.Classify(ctx, classifier.ClassifyInput{
		Text:       input.CleanedText,
		Suggestion: input.Suggestion,
		ShopName:   input.ShopName,
		Categories: names,
	})
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"module": "normalization",
			"text":   input.CleanedText,
		}).Warn("classifier call failed, falling back: ", err)
		return CategoryAssignment{}, false
	}

	if result.CategoryName == "" || result.Confidence < a.config.AIConfidenceThreshold {
		return CategoryAssignment{}, false
	}

	// Only a name from the supplied list is acceptable, whatever the
	// classifier's raw text said.
	for _, c := range categories {
		if strings.EqualFold(c.Name, result.CategoryName) {
			return CategoryAssignment{CategoryID: c.ID, Source: CategorySourceAI}, true
		}
	}
	return CategoryAssignment{}, false
}
