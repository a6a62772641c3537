package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetProducts    = "products retrieved successfully"
	MessageSuccessCreateProduct  = "product created successfully"
	MessageSuccessGetAliases     = "aliases retrieved successfully"
	MessageSuccessGetCategories  = "categories retrieved successfully"
	MessageSuccessGetCandidates  = "candidates retrieved successfully"

	MessageFailedGetProducts   = "failed to retrieve products"
	MessageFailedCreateProduct = "failed to create product"
	MessageFailedGetAliases    = "failed to retrieve aliases"
	MessageFailedGetCategories = "failed to retrieve categories"
	MessageFailedGetCandidates = "failed to retrieve candidates"

	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
	ErrCategoryNotFound     = errors.New("category not found")
)

type (
	CreateProductRequest struct {
		Name       string `json:"name" validate:"required"`
		CategoryID string `json:"category_id" validate:"omitempty,uuid"`
	}

	ProductResponse struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		CategoryID *string   `json:"category_id,omitempty"`
		Category   string    `json:"category,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}

	AliasResponse struct {
		ID                string  `json:"id"`
		RawName           string  `json:"raw_name"`
		ProductID         string  `json:"product_id"`
		ShopID            *string `json:"shop_id,omitempty"`
		UserID            *string `json:"user_id,omitempty"`
		ConfirmationCount int     `json:"confirmation_count"`
	}

	CategoryResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	CandidateResponse struct {
		ID                 string  `json:"id"`
		RepresentativeName string  `json:"representative_name"`
		ConfirmationCount  int     `json:"confirmation_count"`
		Status             string  `json:"status"`
		CategoryID         *string `json:"category_id,omitempty"`
		ProductID          *string `json:"product_id,omitempty"`
	}
)
