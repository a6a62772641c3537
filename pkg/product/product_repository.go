package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paragon-backend/entities"
)

type (
	ProductRepository interface {
		GetProducts(ctx context.Context, page, limit int) ([]*entities.Product, int64, error)
		GetAllProducts(ctx context.Context) ([]*entities.Product, error)
		GetProductByID(ctx context.Context, id string) (*entities.Product, error)
		CreateProduct(ctx context.Context, product *entities.Product) error
		// GetOrCreateProduct resolves a concurrent create of the same name by
		// re-fetching instead of failing.
		GetOrCreateProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*entities.Product, error)

		FindAliasUserShop(ctx context.Context, rawNameKey string, shopID, userID uuid.UUID) (*entities.Alias, error)
		FindAliasShop(ctx context.Context, rawNameKey string, shopID uuid.UUID) (*entities.Alias, error)
		FindAliasGlobal(ctx context.Context, rawNameKey string) (*entities.Alias, error)
		// UpsertAlias inserts a new (raw_name, product) alias with count 1 or
		// increments the confirmation count of an existing one.
		UpsertAlias(ctx context.Context, alias *entities.Alias) error
		GetAliasesByProduct(ctx context.Context, productID string) ([]*entities.Alias, error)

		GetCategories(ctx context.Context) ([]*entities.Category, error)
		GetCategoryByID(ctx context.Context, id uuid.UUID) (*entities.Category, error)
		GetOrCreateCategory(ctx context.Context, name string) (*entities.Category, error)
	}

	productRepository struct {
		db *gorm.DB
	}
)

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProducts(ctx context.Context, page, limit int) ([]*entities.Product, int64, error) {
	var products []*entities.Product
	var count int64

	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.Product{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Preload("Category").
		Offset(offset).Limit(limit).Order("name asc").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *productRepository) GetAllProducts(ctx context.Context) ([]*entities.Product, error) {
	var products []*entities.Product
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	product.NameKey = strings.ToLower(product.Name)
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetOrCreateProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*entities.Product, error) {
	nameKey := strings.ToLower(name)

	var existing entities.Product
	err := r.db.WithContext(ctx).Where("name_key = ?", nameKey).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product := &entities.Product{
		ID:         uuid.New(),
		Name:       name,
		NameKey:    nameKey,
		CategoryID: categoryID,
	}
	err = r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		return product, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another worker created the same name concurrently.
		if ferr := r.db.WithContext(ctx).Where("name_key = ?", nameKey).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
	}
	return nil, err
}

func (r *productRepository) FindAliasUserShop(ctx context.Context, rawNameKey string, shopID, userID uuid.UUID) (*entities.Alias, error) {
	return r.findAlias(ctx, r.db.WithContext(ctx).
		Where("raw_name_key = ? AND shop_id = ? AND user_id = ?", rawNameKey, shopID, userID))
}

func (r *productRepository) FindAliasShop(ctx context.Context, rawNameKey string, shopID uuid.UUID) (*entities.Alias, error) {
	return r.findAlias(ctx, r.db.WithContext(ctx).
		Where("raw_name_key = ? AND shop_id = ? AND user_id IS NULL", rawNameKey, shopID))
}

func (r *productRepository) FindAliasGlobal(ctx context.Context, rawNameKey string) (*entities.Alias, error) {
	return r.findAlias(ctx, r.db.WithContext(ctx).
		Where("raw_name_key = ? AND shop_id IS NULL AND user_id IS NULL", rawNameKey))
}

func (r *productRepository) findAlias(ctx context.Context, query *gorm.DB) (*entities.Alias, error) {
	var alias entities.Alias
	err := query.Preload("Product").Order("confirmation_count DESC").First(&alias).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alias, nil
}

func (r *productRepository) UpsertAlias(ctx context.Context, alias *entities.Alias) error {
	alias.RawNameKey = strings.ToLower(alias.RawName)

	var existing entities.Alias
	err := r.db.WithContext(ctx).
		Where("raw_name_key = ? AND product_id = ?", alias.RawNameKey, alias.ProductID).
		First(&existing).Error
	if err == nil {
		return r.incrementAlias(ctx, &existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if alias.ConfirmationCount == 0 {
		alias.ConfirmationCount = 1
	}
	err = r.db.WithContext(ctx).Create(alias).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race against a concurrent insert; count the confirmation anyway.
		if ferr := r.db.WithContext(ctx).
			Where("raw_name_key = ? AND product_id = ?", alias.RawNameKey, alias.ProductID).
			First(&existing).Error; ferr == nil {
			return r.incrementAlias(ctx, &existing)
		}
	}
	return err
}

func (r *productRepository) incrementAlias(ctx context.Context, alias *entities.Alias) error {
	return r.db.WithContext(ctx).Model(alias).
		Update("confirmation_count", gorm.Expr("confirmation_count + 1")).Error
}

func (r *productRepository) GetAliasesByProduct(ctx context.Context, productID string) ([]*entities.Alias, error) {
	var aliases []*entities.Alias
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("confirmation_count DESC").
		Find(&aliases).Error; err != nil {
		return nil, err
	}
	return aliases, nil
}

func (r *productRepository) GetCategories(ctx context.Context) ([]*entities.Category, error) {
	var categories []*entities.Category
	if err := r.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *productRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *productRepository) GetOrCreateCategory(ctx context.Context, name string) (*entities.Category, error) {
	nameKey := strings.ToLower(name)

	var existing entities.Category
	err := r.db.WithContext(ctx).Where("name_key = ?", nameKey).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &entities.Category{
		ID:      uuid.New(),
		Name:    name,
		NameKey: nameKey,
	}
	err = r.db.WithContext(ctx).Create(category).Error
	if err == nil {
		return category, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if ferr := r.db.WithContext(ctx).Where("name_key = ?", nameKey).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
	}
	return nil, err
}
