package routes

import (
	"github.com/gofiber/fiber/v2"

	"paragon-backend/internal/api/handlers"
	"paragon-backend/internal/middleware"
	"paragon-backend/pkg/jwt"
)

type Config struct {
	App            *fiber.App
	UserHandler    handlers.UserHandler
	ReceiptHandler handlers.ReceiptHandler
	ProductHandler handlers.ProductHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Receipts()
	c.Products()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/verify", c.UserHandler.VerifyEmail)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
	}
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.AuthMiddleware(c.JWTService))

	receipts.Post("", c.ReceiptHandler.UploadReceipt)
	receipts.Get("", c.ReceiptHandler.GetReceipts)
	receipts.Get("/:id", c.ReceiptHandler.GetReceiptDetails)
	receipts.Post("/:id/process", c.ReceiptHandler.ReprocessReceipt)

	items := c.App.Group("/api/v1/line-items", c.Middleware.AuthMiddleware(c.JWTService))
	items.Patch("/:id/verify", c.ReceiptHandler.VerifyLineItem)
}

func (c *Config) Products() {
	products := c.App.Group("/api/v1/products", c.Middleware.AuthMiddleware(c.JWTService))
	products.Get("", c.ProductHandler.GetProducts)
	products.Post("", c.Middleware.OnlyAdmin, c.ProductHandler.CreateProduct)
	products.Get("/:id/aliases", c.ProductHandler.GetProductAliases)

	c.App.Get("/api/v1/categories", c.Middleware.AuthMiddleware(c.JWTService), c.ProductHandler.GetCategories)

	// dictionary review surface for admins
	candidates := c.App.Group("/api/v1/candidates", c.Middleware.AuthMiddleware(c.JWTService), c.Middleware.OnlyAdmin)
	candidates.Get("", c.ProductHandler.GetCandidates)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
