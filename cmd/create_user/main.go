package main

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"duet/models"
	"duet/pkg/config"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <username> <password> [display name]")
		os.Exit(2)
	}
	username := os.Args[1]
	password := os.Args[2]
	displayName := username
	if len(os.Args) > 3 {
		displayName = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	var db *gorm.DB
	if cfg.DB.DSN != "" {
		db, err = gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DB.SQLitePath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// ensure the regular role exists
	var role models.Role
	if err := db.Where("name = ?", "user").First(&role).Error; err != nil {
		role = models.Role{Name: "user", Description: "regular user"}
		db.Create(&role)
	}

	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := role.ID
	user := models.User{Username: username, HashedPassword: hpw, DisplayName: displayName, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", username, user.ID)
}
