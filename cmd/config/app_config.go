package config

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"paragon-backend/internal/api/handlers"
	"paragon-backend/internal/api/routes"
	"paragon-backend/internal/middleware"
	"paragon-backend/internal/utils"
	"paragon-backend/internal/utils/storage"
	"paragon-backend/pkg/classifier"
	"paragon-backend/pkg/jwt"
	"paragon-backend/pkg/learning"
	"paragon-backend/pkg/normalization"
	"paragon-backend/pkg/ocr"
	"paragon-backend/pkg/product"
	"paragon-backend/pkg/receipt"
	"paragon-backend/pkg/user"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Europe/Warsaw",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	appLogger := utils.GetLogger()
	normConfig := normalization.LoadConfigFromEnv()

	// Repository
	userRepository := user.NewUserRepository(db)
	productRepository := product.NewProductRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	learningRepository := learning.NewLearningRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService, appLogger)
	productService := product.NewProductService(productRepository)

	categoryClassifier := classifier.NewGeminiClassifier(appLogger)
	aliasResolver := normalization.NewAliasResolver(productRepository)
	fuzzyMatcher := normalization.NewFuzzyMatcher(productRepository, normConfig)
	categoryAssigner := normalization.NewCategoryAssigner(productRepository, categoryClassifier, normConfig, appLogger)
	normalizationService := normalization.NewNormalizationService(
		productRepository,
		aliasResolver,
		fuzzyMatcher,
		categoryAssigner,
		normConfig,
		appLogger,
	)
	learningService := learning.NewLearningService(learningRepository, productRepository, fuzzyMatcher, normConfig, appLogger)
	receiptExtractor := ocr.NewGeminiExtractor(appLogger)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		normalizationService,
		receiptExtractor,
		learningService,
		s3,
		appLogger,
	)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	productHandler := handlers.NewProductHandler(productService, learningService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		UserHandler:    userHandler,
		ReceiptHandler: receiptHandler,
		ProductHandler: productHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
