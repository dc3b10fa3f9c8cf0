package database

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAutoMigrateAndSeed(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "pos.db"), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := config.SeedConfig{BusinessName: "Demo", AdminUser: "admin", AdminPass: "password123"}
	if err := SeedDefaultData(db, seed, 30); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// second run is a no-op
	if err := SeedDefaultData(db, seed, 30); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var users []entity.User
	if err := db.Preload("Permissions").Find(&users).Error; err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 seeded user, got %d", len(users))
	}
	if !users[0].Capabilities().Has(enum.CapManageSettings) {
		t.Fatalf("expected seeded admin to manage settings")
	}

	var branch entity.Branch
	if err := db.First(&branch).Error; err != nil {
		t.Fatalf("load branch: %v", err)
	}
	if branch.Name != "Main Branch - Demo" {
		t.Fatalf("expected main branch name, got %q", branch.Name)
	}
}

func TestOpenSessionIndexRejectsSecondOpen(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "pos.db"), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	biz := entity.Business{Name: "B", SubscriptionPlan: enum.PlanBasic, SubscriptionStatus: enum.SubscriptionTrial, Status: enum.StatusActive}
	if err := db.Create(&biz).Error; err != nil {
		t.Fatalf("business: %v", err)
	}
	branch := entity.Branch{BusinessID: biz.ID, Name: "Main", Status: enum.StatusActive}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("branch: %v", err)
	}
	user := entity.User{BusinessID: biz.ID, FirstName: "A", Username: "a", Email: "a@x.io", Password: "x", Role: enum.RoleCashier, Status: enum.StatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	open := func() error {
		s := entity.RegisterSession{
			ID:          uuid.New(),
			BusinessID:  biz.ID,
			BranchID:    branch.ID,
			UserID:      user.ID,
			Status:      enum.SessionStatusOpen,
			InitialCash: decimal.NewFromInt(10),
		}
		return db.Omit("Business", "Branch", "User").Create(&s).Error
	}
	if err := open(); err != nil {
		t.Fatalf("first open: %v", err)
	}
	err = open()
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate violation, got %v", err)
	}
	if !errors.Is(TranslateError(err), ErrDuplicate) {
		t.Fatalf("expected translated ErrDuplicate")
	}
}

func TestIsDuplicateIgnoresOtherErrors(t *testing.T) {
	if IsDuplicate(nil) || IsDuplicate(errors.New("connection reset")) {
		t.Fatalf("expected non-unique errors to be rejected")
	}
}

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(log.New(&buf, "", 0), logger.Warn)
	query := func() (string, int64) { return "SELECT 1", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for a miss, got %q", buf.String())
	}
	l.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
	if !strings.Contains(buf.String(), "disk I/O error") {
		t.Fatalf("expected real errors to be logged, got %q", buf.String())
	}
}
