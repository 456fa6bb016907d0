package main

import (
	"log"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"duet/models"
	"duet/pkg/config"
)

var db *gorm.DB

func initDB(cfg *config.Config) {
	var err error
	if cfg.DB.DSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	} else {
		// local development and tests run on sqlite
		db, err = gorm.Open(sqlite.Open(cfg.DB.SQLitePath), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if cfg.DB.AutoMigrate {
		// roles first so the users FK can be applied safely
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		// migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.Couple{}); err != nil {
			log.Printf("migration warning (couples): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Memory{}); err != nil {
			log.Printf("migration warning (memories): %v", err)
		}
		if err := db.AutoMigrate(&models.Idea{}); err != nil {
			log.Printf("migration warning (ideas): %v", err)
		}
		if err := db.AutoMigrate(&models.ImageAsset{}); err != nil {
			log.Printf("migration warning (image_assets): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}

	seedDB()
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Seed admin user if missing
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin := models.User{
			Username:       "admin",
			HashedPassword: hashedPassword,
			DisplayName:    "Administrator",
			RoleID:         &rid,
		}
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
}
