package migration

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"paragon-backend/entities"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm;")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Shop{}); err != nil {
		log.Fatalf("Error migrating shop database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Category{}); err != nil {
		log.Fatalf("Error migrating category database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		log.Fatalf("Error migrating product database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Alias{}); err != nil {
		log.Fatalf("Error migrating alias database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Candidate{}); err != nil {
		log.Fatalf("Error migrating candidate database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Receipt{}); err != nil {
		log.Fatalf("Error migrating receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.LineItem{}); err != nil {
		log.Fatalf("Error migrating line item database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
