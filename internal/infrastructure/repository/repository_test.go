package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, *entity.Business) {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "pos.db"), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	biz := &entity.Business{Name: "B", SubscriptionPlan: enum.PlanBasic, SubscriptionStatus: enum.SubscriptionTrial, Status: enum.StatusActive}
	if err := db.Create(biz).Error; err != nil {
		t.Fatalf("business: %v", err)
	}
	return db, biz
}

func createProduct(t *testing.T, db *gorm.DB, businessID uuid.UUID, sku string, stock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		BusinessID:   businessID,
		Name:         "Item " + sku,
		SKU:          sku,
		UnitType:     enum.UnitTypeUnit,
		Price:        decimal.NewFromInt(1),
		CurrentStock: decimal.NewFromInt(stock),
		Status:       enum.StatusActive,
	}
	if err := NewProductRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	db, biz := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := createProduct(t, db, biz.ID, "A1", 5)

	ok, err := repo.AdjustStock(ctx, biz.ID, p.ID, decimal.NewFromInt(-5))
	if err != nil || !ok {
		t.Fatalf("expected draining to zero to succeed, got %v %v", ok, err)
	}
	ok, err = repo.AdjustStock(ctx, biz.ID, p.ID, decimal.NewFromInt(-1))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if ok {
		t.Fatalf("expected the guard to refuse a negative result")
	}
	ok, err = repo.AdjustStock(ctx, biz.ID, p.ID, decimal.RequireFromString("2.5"))
	if err != nil || !ok {
		t.Fatalf("expected restock to succeed, got %v %v", ok, err)
	}

	got, err := repo.GetByID(ctx, biz.ID, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CurrentStock.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected stock 2.5, got %s", got.CurrentStock)
	}

	// another business cannot touch the row
	ok, err = repo.AdjustStock(ctx, uuid.New(), p.ID, decimal.NewFromInt(1))
	if err != nil || ok {
		t.Fatalf("expected a foreign business to match no row, got %v %v", ok, err)
	}
}

func TestTransactorRollsBackAndNests(t *testing.T) {
	db, biz := setupDB(t)
	tx := NewTransactor(db)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := createProduct(t, db, biz.ID, "T1", 10)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AdjustStock(ctx, biz.ID, p.ID, decimal.NewFromInt(-4)); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			extra := &entity.Product{BusinessID: biz.ID, Name: "Extra", SKU: "T2", UnitType: enum.UnitTypeUnit, Status: enum.StatusActive}
			if err := repo.Create(ctx, extra); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.GetByID(ctx, biz.ID, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected rollback to restore stock 10, got %s", got.CurrentStock)
	}
	n, err := repo.Count(ctx, biz.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the nested insert to roll back, got %d products", n)
	}
}

func TestGetByIDIsScopedToBusiness(t *testing.T) {
	db, biz := setupDB(t)
	p := createProduct(t, db, biz.ID, "S1", 1)

	got, err := NewProductRepository(db).GetByID(context.Background(), uuid.New(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no product for a foreign business")
	}
}

func TestMovementSumMatchesLedger(t *testing.T) {
	db, biz := setupDB(t)
	ctx := context.Background()
	p := createProduct(t, db, biz.ID, "M1", 0)
	movements := NewInventoryMovementRepository(db)

	for _, q := range []int64{10, -3, 4} {
		m := &entity.InventoryMovement{
			BusinessID:   biz.ID,
			ProductID:    p.ID,
			MovementType: enum.MovementAdjustment,
			Quantity:     decimal.NewFromInt(q),
		}
		if err := movements.Create(ctx, m); err != nil {
			t.Fatalf("movement: %v", err)
		}
	}
	sum, err := movements.SumByProduct(ctx, biz.ID, p.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("expected 11, got %s", sum)
	}
}
