package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Tenant and identity
		&entity.Business{},
		&entity.Branch{},
		&entity.User{},
		&entity.UserPermission{},
		&entity.PasswordResetToken{},

		// Catalog
		&entity.Category{},
		&entity.Product{},
		&entity.ProductCombo{},
		&entity.InventoryMovement{},

		// Customers, registers and sales
		&entity.Customer{},
		&entity.RegisterSession{},
		&entity.Sale{},
		&entity.SaleItem{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultData creates a demo business with its main branch and an admin
// when SEED_* is configured and the admin does not exist yet.
func SeedDefaultData(db *gorm.DB, seed config.SeedConfig, trialDays int) error {
	if seed.BusinessName == "" || seed.AdminUser == "" || seed.AdminPass == "" {
		return nil
	}
	log.Println("Seeding default data...")

	var existing entity.User
	err := db.Where("username = ?", seed.AdminUser).First(&existing).Error
	if err == nil {
		log.Printf("Seed admin already exists: %s", seed.AdminUser)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		expiry := time.Now().UTC().AddDate(0, 0, trialDays)
		business := entity.Business{
			Name:               seed.BusinessName,
			SubscriptionPlan:   enum.PlanBasic,
			SubscriptionStatus: enum.SubscriptionTrial,
			SubscriptionExpiry: &expiry,
			Status:             enum.StatusActive,
		}
		if err := tx.Create(&business).Error; err != nil {
			return fmt.Errorf("failed to seed business: %w", err)
		}

		branch := entity.Branch{
			BusinessID: business.ID,
			Name:       "Main Branch - " + business.Name,
			Status:     enum.StatusActive,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return fmt.Errorf("failed to seed branch: %w", err)
		}

		email := seed.AdminEmail
		if email == "" {
			email = seed.AdminUser + "@example.com"
		}
		admin := entity.User{
			BusinessID: business.ID,
			BranchID:   &branch.ID,
			FirstName:  "Admin",
			Username:   seed.AdminUser,
			Email:      email,
			Password:   string(hashed),
			Role:       enum.RoleAdmin,
			Status:     enum.StatusActive,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		for _, c := range enum.RoleAdmin.DefaultCapabilities() {
			perm := entity.UserPermission{UserID: admin.ID, Permission: c.String()}
			if err := tx.Create(&perm).Error; err != nil {
				return fmt.Errorf("failed to seed admin permission: %w", err)
			}
		}

		log.Printf("Seed business %q created with admin %s", business.Name, admin.Username)
		return nil
	})
}
