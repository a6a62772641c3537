package product

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"paragon-backend/domain"
	"paragon-backend/entities"
)

type fakeProductRepo struct {
	products   []*entities.Product
	aliases    []*entities.Alias
	categories []*entities.Category
}

func (f *fakeProductRepo) GetProducts(ctx context.Context, page, limit int) ([]*entities.Product, int64, error) {
	return f.products, int64(len(f.products)), nil
}

func (f *fakeProductRepo) GetAllProducts(ctx context.Context) ([]*entities.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	for _, p := range f.products {
		if p.ID.String() == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *entities.Product) error {
	nameKey := strings.ToLower(product.Name)
	for _, p := range f.products {
		if p.NameKey == nameKey {
			return gorm.ErrDuplicatedKey
		}
	}
	product.NameKey = nameKey
	f.products = append(f.products, product)
	return nil
}

func (f *fakeProductRepo) GetOrCreateProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*entities.Product, error) {
	product := &entities.Product{ID: uuid.New(), Name: name, NameKey: strings.ToLower(name), CategoryID: categoryID}
	if err := f.CreateProduct(ctx, product); err != nil {
		for _, p := range f.products {
			if p.NameKey == product.NameKey {
				return p, nil
			}
		}
	}
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
	f.aliases = append(f.aliases, alias)
	return nil
}

func (f *fakeProductRepo) GetAliasesByProduct(ctx context.Context, productID string) ([]*entities.Alias, error) {
	var result []*entities.Alias
	for _, a := range f.aliases {
		if a.ProductID.String() == productID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) GetCategories(ctx context.Context) ([]*entities.Category, error) {
	return f.categories, nil
}

func (f *fakeProductRepo) GetCategoryByID(ctx context.Context, id uuid.UUID) (*entities.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) GetOrCreateCategory(ctx context.Context, name string) (*entities.Category, error) {
	category := &entities.Category{ID: uuid.New(), Name: name, NameKey: strings.ToLower(name)}
	f.categories = append(f.categories, category)
	return category, nil
}

func TestCreateProduct(t *testing.T) {
	repo := &fakeProductRepo{}
	category := &entities.Category{ID: uuid.New(), Name: "Dairy", NameKey: "dairy"}
	repo.categories = append(repo.categories, category)

	service := NewProductService(repo)

	t.Run("with category", func(t *testing.T) {
		res, err := service.CreateProduct(context.Background(), domain.CreateProductRequest{
			Name:       "Mleko UHT 3.2%",
			CategoryID: category.ID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, "Mleko UHT 3.2%", res.Name)
		require.NotNil(t, res.CategoryID)
		assert.Equal(t, category.ID.String(), *res.CategoryID)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := service.CreateProduct(context.Background(), domain.CreateProductRequest{
			Name: "mleko uht 3.2%",
		})
		assert.ErrorIs(t, err, domain.ErrProductAlreadyExists)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := service.CreateProduct(context.Background(), domain.CreateProductRequest{
			Name:       "Chleb",
			CategoryID: uuid.New().String(),
		})
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})

	t.Run("malformed category id", func(t *testing.T) {
		_, err := service.CreateProduct(context.Background(), domain.CreateProductRequest{
			Name:       "Chleb",
			CategoryID: "not-a-uuid",
		})
		assert.ErrorIs(t, err, domain.ErrParseUUID)
	})
}

func TestGetProductAliases(t *testing.T) {
	repo := &fakeProductRepo{}
	product := &entities.Product{ID: uuid.New(), Name: "Mleko", NameKey: "mleko"}
	repo.products = append(repo.products, product)
	repo.aliases = append(repo.aliases, &entities.Alias{
		ID:                uuid.New(),
		RawName:           "mleko 3.2%",
		RawNameKey:        "mleko 3.2%",
		ProductID:         product.ID,
		ConfirmationCount: 4,
	})

	service := NewProductService(repo)

	aliases, err := service.GetProductAliases(context.Background(), product.ID.String())
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "mleko 3.2%", aliases[0].RawName)
	assert.Equal(t, 4, aliases[0].ConfirmationCount)

	_, err = service.GetProductAliases(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
