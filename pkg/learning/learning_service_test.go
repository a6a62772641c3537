package learning

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"paragon-backend/entities"
	"paragon-backend/pkg/normalization"
)

type fakeProductRepo struct {
	products []*entities.Product

	upsertedAliases []*entities.Alias
}

func (f *fakeProductRepo) GetProducts(ctx context.Context, page, limit int) ([]*entities.Product, int64, error) {
	return f.products, int64(len(f.products)), nil
}

func (f *fakeProductRepo) GetAllProducts(ctx context.Context) ([]*entities.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *entities.Product) error {
	f.products = append(f.products, product)
	return nil
}

func (f *fakeProductRepo) GetOrCreateProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*entities.Product, error) {
	nameKey := strings.ToLower(name)
	for _, p := range f.products {
		if p.NameKey == nameKey {
			return p, nil
		}
	}
	product := &entities.Product{ID: uuid.New(), Name: name, NameKey: nameKey, CategoryID: categoryID}
	f.products = append(f.products, product)
	return product, nil
}

func (f *fakeProductRepo) FindAliasUserShop(ctx context.Context, rawNameKey string, shopID, userID uuid.UUID) (*entities.Alias, error) {
	return nil, nil
}

func (f *fakeProductRepo) FindAliasShop(ctx context.Context, rawNameKey string, shopID uuid.UUID) (*entities.Alias, error) {
	return nil, nil
}

func (f *fakeProductRepo) FindAliasGlobal(ctx context.Context, rawNameKey string) (*entities.Alias, error) {
	return nil, nil
}

func (f *fakeProductRepo) UpsertAlias(ctx context.Context, alias *entities.Alias) error {
	alias.RawNameKey = strings.ToLower(alias.RawName)
	f.upsertedAliases = append(f.upsertedAliases, alias)
	return nil
}

func (f *fakeProductRepo) GetAliasesByProduct(ctx context.Context, productID string) ([]*entities.Alias, error) {
	return nil, nil
}

func (f *fakeProductRepo) GetCategories(ctx context.Context) ([]*entities.Category, error) {
	return nil, nil
}

func (f *fakeProductRepo) GetCategoryByID(ctx context.Context, id uuid.UUID) (*entities.Category, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) GetOrCreateCategory(ctx context.Context, name string) (*entities.Category, error) {
	return &entities.Category{ID: uuid.New(), Name: name, NameKey: strings.ToLower(name)}, nil
}

// fakeLearningRepo keeps candidates and line items in memory and records the
// order of mutating calls.
type fakeLearningRepo struct {
	candidates []*entities.Candidate
	items      []*entities.LineItem

	events []string
}

func (f *fakeLearningRepo) GetPendingCandidates(ctx context.Context) ([]*entities.Candidate, error) {
	var pending []*entities.Candidate
	for _, c := range f.candidates {
		if c.Status == entities.CandidateStatusPending {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

func (f *fakeLearningRepo) GetCandidates(ctx context.Context, status string) ([]*entities.Candidate, error) {
	if status == "" || status == "all" {
		return f.candidates, nil
	}
	var result []*entities.Candidate
	for _, c := range f.candidates {
		if c.Status == status {
			result = append(result, c)
		}
	}
	return result, nil
}

func (f *fakeLearningRepo) CreateCandidate(ctx context.Context, candidate *entities.Candidate) error {
	f.events = append(f.events, "create_candidate")
	f.candidates = append(f.candidates, candidate)
	return nil
}

func (f *fakeLearningRepo) SaveCandidate(ctx context.Context, candidate *entities.Candidate) error {
	f.events = append(f.events, "save_candidate:"+candidate.Status)
	return nil
}

func (f *fakeLearningRepo) FindUnlinkedVerifiedItems(ctx context.Context) ([]*entities.LineItem, error) {
	var unlinked []*entities.LineItem
	for _, item := range f.items {
		if item.ProductID == nil {
			unlinked = append(unlinked, item)
		}
	}
	return unlinked, nil
}

func (f *fakeLearningRepo) UpdateLineItemProducts(ctx context.Context, itemIDs []uuid.UUID, productID uuid.UUID) error {
	f.events = append(f.events, "update_line_items")
	ids := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	for _, item := range f.items {
		if ids[item.ID] {
			id := productID
			item.ProductID = &id
		}
	}
	return nil
}

func (f *fakeLearningRepo) SaveLineItem(ctx context.Context, item *entities.LineItem) error {
	f.events = append(f.events, "save_line_item")
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestLearningService(repo *fakeLearningRepo, products *fakeProductRepo) LearningService {
	config := normalization.DefaultConfig()
	matcher := normalization.NewFuzzyMatcher(products, config)
	return NewLearningService(repo, products, matcher, config, testLogger())
}

func verifiedItem(originalText string, shopID *uuid.UUID, userID uuid.UUID) *entities.LineItem {
	return &entities.LineItem{
		ID:                 uuid.New(),
		OriginalText:       originalText,
		IsVerified:         true,
		VerificationSource: entities.VerificationSourceUser,
		Receipt: &entities.Receipt{
			UserID: userID,
			ShopID: shopID,
		},
	}
}

func TestProcessConfirmationLinksToExistingProduct(t *testing.T) {
	products := &fakeProductRepo{}
	milk := &entities.Product{ID: uuid.New(), Name: "Mleko UHT 3.2%", NameKey: "mleko uht 3.2%"}
	products.products = append(products.products, milk)

	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	shopID := uuid.New()
	userID := uuid.New()
	item := verifiedItem("MLEKO   3,2% UHT", &shopID, userID)

	err := service.ProcessConfirmation(context.Background(), Confirmation{
		LineItem:   item,
		EditedText: "mleko uht 3,2%",
		ShopID:     &shopID,
		UserID:     &userID,
	})
	require.NoError(t, err)

	require.NotNil(t, item.ProductID)
	assert.Equal(t, milk.ID, *item.ProductID)
	assert.Equal(t, "Mleko UHT 3.2%", item.NormalizedName)
	assert.Empty(t, repo.candidates, "no candidate for an already-known product")

	require.Len(t, products.upsertedAliases, 1)
	alias := products.upsertedAliases[0]
	assert.Equal(t, "mleko uht 3.2%", alias.RawName)
	assert.Equal(t, milk.ID, alias.ProductID)
	assert.Equal(t, &shopID, alias.ShopID)
	assert.Equal(t, &userID, alias.UserID)
}

func TestProcessConfirmationGroupsSimilarEdits(t *testing.T) {
	products := &fakeProductRepo{}
	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	userID := uuid.New()

	for _, edit := range []string{"Domestos Zielony", "domestos  zielony", "DOMESTOS ZIELONY 750"} {
		item := verifiedItem(edit, nil, userID)
		repo.items = append(repo.items, item)
		err := service.ProcessConfirmation(context.Background(), Confirmation{
			LineItem:   item,
			EditedText: edit,
			UserID:     &userID,
		})
		require.NoError(t, err)
	}

	require.Len(t, repo.candidates, 1, "similar edits must cluster into one candidate")
	assert.Equal(t, 3, repo.candidates[0].ConfirmationCount)
	assert.Equal(t, "domestos zielony", repo.candidates[0].RepresentativeName)
	assert.Equal(t, entities.CandidateStatusPending, repo.candidates[0].Status)
}

func TestProcessConfirmationIgnoresEmptyEdit(t *testing.T) {
	products := &fakeProductRepo{}
	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	err := service.ProcessConfirmation(context.Background(), Confirmation{
		LineItem:   verifiedItem("***", nil, uuid.New()),
		EditedText: "---",
	})
	require.NoError(t, err)
	assert.Empty(t, repo.candidates)
}

func TestFiveConfirmationsPromoteCandidate(t *testing.T) {
	products := &fakeProductRepo{}
	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	shopID := uuid.New()
	userID := uuid.New()
	categoryID := uuid.New()

	originals := []string{
		"DOMESTOS ZIELONY",
		"DOMESTOS ZIELONY",
		"DOMESTOS ZIELONY",
		"domestos ziel 750",
		"DOMESTOS zielony 750ml",
	}

	for _, original := range originals {
		item := verifiedItem(original, &shopID, userID)
		item.CategoryID = &categoryID
		repo.items = append(repo.items, item)

		err := service.ProcessConfirmation(context.Background(), Confirmation{
			LineItem:   item,
			EditedText: "Domestos Zielony",
			CategoryID: &categoryID,
			ShopID:     &shopID,
			UserID:     &userID,
		})
		require.NoError(t, err)
	}

	require.Len(t, repo.candidates, 1)
	candidate := repo.candidates[0]
	assert.Equal(t, entities.CandidateStatusApproved, candidate.Status)
	require.NotNil(t, candidate.ProductID)

	// Canonical name is the most frequent original text.
	require.Len(t, products.products, 1)
	canonical := products.products[0]
	assert.Equal(t, "DOMESTOS ZIELONY", canonical.Name)
	assert.Equal(t, canonical.ID, *candidate.ProductID)
	require.NotNil(t, canonical.CategoryID)
	assert.Equal(t, categoryID, *canonical.CategoryID)

	// Every historical item got linked.
	for _, item := range repo.items {
		require.NotNil(t, item.ProductID)
		assert.Equal(t, canonical.ID, *item.ProductID)
	}

	// Aliases learned for each distinct raw text, scoped to the confirming
	// user's shop.
	rawNames := make(map[string]bool)
	for _, alias := range products.upsertedAliases {
		rawNames[alias.RawName] = true
		assert.Equal(t, canonical.ID, alias.ProductID)
	}
	assert.Len(t, rawNames, 3)

	// Items must be re-linked before the candidate flips to approved.
	var updateIdx, approveIdx int
	for i, event := range repo.events {
		switch event {
		case "update_line_items":
			updateIdx = i
		case "save_candidate:approved":
			approveIdx = i
		}
	}
	assert.Greater(t, approveIdx, updateIdx)
}

func TestPromotionWithoutMatchingItemsFails(t *testing.T) {
	products := &fakeProductRepo{}
	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	userID := uuid.New()

	var lastErr error
	for i := 0; i < 5; i++ {
		// Line items never enter the repository, so promotion has nothing to
		// re-link.
		lastErr = service.ProcessConfirmation(context.Background(), Confirmation{
			LineItem:   verifiedItem("DOMESTOS ZIELONY", nil, userID),
			EditedText: "Domestos Zielony",
			UserID:     &userID,
		})
	}

	require.Error(t, lastErr)
	require.Len(t, repo.candidates, 1)
	assert.Equal(t, entities.CandidateStatusPending, repo.candidates[0].Status)
	assert.Empty(t, products.products, "no product may be created for a failed promotion")
}

func TestPromotionDoesNotDuplicateExistingProduct(t *testing.T) {
	products := &fakeProductRepo{}
	existing := &entities.Product{ID: uuid.New(), Name: "DOMESTOS ZIELONY", NameKey: "domestos zielony"}

	repo := &fakeLearningRepo{}
	service := newTestLearningService(repo, products)

	userID := uuid.New()
	for i := 0; i < 5; i++ {
		item := verifiedItem("DOMESTOS ZIELONY", nil, userID)
		repo.items = append(repo.items, item)
		err := service.ProcessConfirmation(context.Background(), Confirmation{
			LineItem:   item,
			EditedText: "Domestos Zielony 750ml bez chloru",
			UserID:     &userID,
		})
		require.NoError(t, err)
		// The product appears concurrently between the 4th and 5th
		// confirmation; promotion must reuse it.
		if i == 3 {
			products.products = append(products.products, existing)
		}
	}

	assert.Len(t, products.products, 1)
	require.Len(t, repo.candidates, 1)
	require.NotNil(t, repo.candidates[0].ProductID)
	assert.Equal(t, existing.ID, *repo.candidates[0].ProductID)
}
