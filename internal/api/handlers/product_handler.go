package handlers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"paragon-backend/domain"
	"paragon-backend/internal/api/presenters"
	"paragon-backend/pkg/learning"
	"paragon-backend/pkg/product"
)

type (
	ProductHandler interface {
		GetProducts(c *fiber.Ctx) error
		CreateProduct(c *fiber.Ctx) error
		GetProductAliases(c *fiber.Ctx) error
		GetCategories(c *fiber.Ctx) error
		GetCandidates(c *fiber.Ctx) error
	}

	productHandler struct {
		productService  product.ProductService
		learningService learning.LearningService
		validator       *validator.Validate
	}
)

func NewProductHandler(productService product.ProductService, learningService learning.LearningService, validator *validator.Validate) ProductHandler {
	return &productHandler{
		productService:  productService,
		learningService: learningService,
		validator:       validator,
	}
}

func (h *productHandler) GetProducts(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	products, count, err := h.productService.GetProducts(c.Context(), page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"products": products,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) CreateProduct(c *fiber.Ctx) error {
	req := new(domain.CreateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateProduct, err)
	}

	res, err := h.productService.CreateProduct(c.Context(), *req)
	if err != nil {
		if errors.Is(err, domain.ErrProductAlreadyExists) {
			return presenters.ErrorResponse(c, fiber.StatusConflict, domain.MessageFailedCreateProduct, err)
		}
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedCreateProduct, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateProduct)
}

func (h *productHandler) GetProductAliases(c *fiber.Ctx) error {
	productID := c.Params("id")

	aliases, err := h.productService.GetProductAliases(c.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetAliases, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetAliases, err)
	}

	return presenters.SuccessResponse(c, aliases, fiber.StatusOK, domain.MessageSuccessGetAliases)
}

func (h *productHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.productService.GetCategories(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetCategories, err)
	}

	return presenters.SuccessResponse(c, categories, fiber.StatusOK, domain.MessageSuccessGetCategories)
}

func (h *productHandler) GetCandidates(c *fiber.Ctx) error {
	status := c.Query("status", "pending")

	candidates, err := h.learningService.GetCandidates(c.Context(), status)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetCandidates, err)
	}

	return presenters.SuccessResponse(c, candidates, fiber.StatusOK, domain.MessageSuccessGetCandidates)
}
