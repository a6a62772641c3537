package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paragon-backend/domain"
	"paragon-backend/entities"
)

type (
	ProductService interface {
		GetProducts(ctx context.Context, page, limit int) ([]domain.ProductResponse, int64, error)
		CreateProduct(ctx context.Context, req domain.CreateProductRequest) (domain.ProductResponse, error)
		GetProductAliases(ctx context.Context, productID string) ([]domain.AliasResponse, error)
		GetCategories(ctx context.Context) ([]domain.CategoryResponse, error)
	}

	productService struct {
		productRepository ProductRepository
	}
)

func NewProductService(productRepository ProductRepository) ProductService {
	return &productService{productRepository: productRepository}
}

func (s *productService) GetProducts(ctx context.Context, page, limit int) ([]domain.ProductResponse, int64, error) {
	products, count, err := s.productRepository.GetProducts(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var response []domain.ProductResponse
	for _, p := range products {
		response = append(response, toProductResponse(p))
	}
	return response, count, nil
}

func (s *productService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (domain.ProductResponse, error) {
	product := &entities.Product{
		ID:   uuid.New(),
		Name: req.Name,
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return domain.ProductResponse{}, domain.ErrParseUUID
		}
		if _, err := s.productRepository.GetCategoryByID(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ProductResponse{}, domain.ErrCategoryNotFound
			}
			return domain.ProductResponse{}, err
		}
		product.CategoryID = &categoryID
	}

	if err := s.productRepository.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ProductResponse{}, domain.ErrProductAlreadyExists
		}
		return domain.ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *productService) GetProductAliases(ctx context.Context, productID string) ([]domain.AliasResponse, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, domain.ErrParseUUID
	}

	if _, err := s.productRepository.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	aliases, err := s.productRepository.GetAliasesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var response []domain.AliasResponse
	for _, a := range aliases {
		resp := domain.AliasResponse{
			ID:                a.ID.String(),
			RawName:           a.RawName,
			ProductID:         a.ProductID.String(),
			ConfirmationCount: a.ConfirmationCount,
		}
		if a.ShopID != nil {
			shopID := a.ShopID.String()
			resp.ShopID = &shopID
		}
		if a.UserID != nil {
			userID := a.UserID.String()
			resp.UserID = &userID
		}
		response = append(response, resp)
	}
	return response, nil
}

func (s *productService) GetCategories(ctx context.Context) ([]domain.CategoryResponse, error) {
	categories, err := s.productRepository.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	var response []domain.CategoryResponse
	for _, c := range categories {
		response = append(response, domain.CategoryResponse{
			ID:   c.ID.String(),
			Name: c.Name,
		})
	}
	return response, nil
}

func toProductResponse(p *entities.Product) domain.ProductResponse {
	resp := domain.ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
	if p.CategoryID != nil {
		categoryID := p.CategoryID.String()
		resp.CategoryID = &categoryID
	}
	if p.Category != nil {
		resp.Category = p.Category.Name
	}
	return resp
}
