package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// productUpdateColumns excludes current_stock, which only AdjustStock writes.
var productUpdateColumns = []string{
	"category_id", "name", "description", "sku", "barcode", "unit_type",
	"price", "cost", "tax_rate", "min_stock", "status", "updated_at",
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).
		Preload("Category").
		Preload("Components.Product").
		Scopes(BusinessScope(businessID)).
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// GetByIDs retrieves multiple products by their IDs in a single query (prevents N+1)
func (r *productRepository) GetByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]entity.Product, error) {
	var products []entity.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := conn(ctx, r.db).
		Preload("Components.Product").
		Scopes(BusinessScope(businessID)).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return database.TranslateError(conn(ctx, r.db).Model(product).
		Select(productUpdateColumns).
		Updates(product).Error)
}

func (r *productRepository) List(ctx context.Context, businessID uuid.UUID, filter domainRepo.ProductFilter, params *pagination.PaginationParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(BusinessScope(businessID), SearchScope(filter.Search, "name", "sku", "barcode"))
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UnitType != "" {
		query = query.Where("unit_type = ?", filter.UnitType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.
		Preload("Category").
		Preload("Components.Product").
		Offset(params.Offset()).Limit(params.PerPage).
		Order("name ASC").
		Find(&products).Error

	return products, total, err
}

func (r *productRepository) lowStock(ctx context.Context, businessID uuid.UUID) *gorm.DB {
	return conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(BusinessScope(businessID)).
		Where("status = ? AND unit_type <> ? AND current_stock <= min_stock", enum.StatusActive, enum.UnitTypeCombo)
}

func (r *productRepository) GetLowStock(ctx context.Context, businessID uuid.UUID) ([]entity.Product, error) {
	var products []entity.Product
	err := r.lowStock(ctx, businessID).
		Preload("Category").
		Order("current_stock ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepository) CountLowStock(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := r.lowStock(ctx, businessID).Count(&count).Error
	return count, err
}

func (r *productRepository) Count(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Product{}).Scopes(BusinessScope(businessID)).Count(&count).Error
	return count, err
}

func (r *productRepository) CountActive(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(BusinessScope(businessID)).
		Where("status = ?", enum.StatusActive).
		Count(&count).Error
	return count, err
}

func (r *productRepository) CountByCategory(ctx context.Context, businessID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(BusinessScope(businessID)).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *productRepository) ActiveCountsByCategory(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	err := conn(ctx, r.db).Model(&entity.Product{}).
		Select("category_id, COUNT(*) AS count").
		Scopes(BusinessScope(businessID)).
		Where("status = ? AND category_id IS NOT NULL", enum.StatusActive).
		Group("category_id").
		Scan(&rows).Error
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.Count
	}
	return out, err
}

func (r *productRepository) ReplaceComponents(ctx context.Context, comboID uuid.UUID, comps []entity.ProductCombo) error {
	db := conn(ctx, r.db)
	if err := db.Where("combo_id = ?", comboID).Delete(&entity.ProductCombo{}).Error; err != nil {
		return err
	}
	if len(comps) == 0 {
		return nil
	}
	for i := range comps {
		comps[i].ID = uuid.Nil
		comps[i].ComboID = comboID
	}
	return db.Omit(clause.Associations).Create(&comps).Error
}

func (r *productRepository) IsComponent(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ProductCombo{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count > 0, err
}

// AdjustStock applies delta atomically. Decrements carry a stock guard in the
// WHERE clause, so a concurrent sale can never drive stock below zero.
func (r *productRepository) AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	query := conn(ctx, r.db).Model(&entity.Product{}).
		Where("id = ? AND business_id = ?", id, businessID)
	if delta.IsNegative() {
		query = query.Where("current_stock >= ?", delta.Neg())
	}

	result := query.Update("current_stock", gorm.Expr("current_stock + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type inventoryMovementRepository struct {
	db *gorm.DB
}

// NewInventoryMovementRepository creates a new stock ledger repository
func NewInventoryMovementRepository(db *gorm.DB) domainRepo.InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(movement).Error
}

// ListByProduct returns movements newest first. Fetches limit+1 rows so the
// caller can detect a next page.
func (r *inventoryMovementRepository) ListByProduct(ctx context.Context, businessID, productID uuid.UUID, filter domainRepo.MovementFilter, params *pagination.CursorParams) ([]entity.InventoryMovement, error) {
	var movements []entity.InventoryMovement

	params.Validate()
	query := conn(ctx, r.db).
		Scopes(BusinessScope(businessID)).
		Where("product_id = ?", productID)
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	cursor, err := params.DecodeCursor()
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	err = query.Limit(params.Limit + 1).
		Order("created_at DESC, id DESC").
		Find(&movements).Error
	return movements, err
}

func (r *inventoryMovementRepository) SumByProduct(ctx context.Context, businessID, productID uuid.UUID) (decimal.Decimal, error) {
	var movements []entity.InventoryMovement
	err := conn(ctx, r.db).
		Select("quantity").
		Scopes(BusinessScope(businessID)).
		Where("product_id = ?", productID).
		Find(&movements).Error
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.Quantity)
	}
	return sum, err
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) domainRepo.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &category, err
}

func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return conn(ctx, r.db).Scopes(BusinessScope(businessID)).Delete(&entity.Category{}, "id = ?", id).Error
}

func (r *categoryRepository) ListAll(ctx context.Context, businessID uuid.UUID) ([]entity.Category, error) {
	var categories []entity.Category
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) CountChildren(ctx context.Context, businessID, id uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Category{}).
		Scopes(BusinessScope(businessID)).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *categoryRepository) SiblingNameExists(ctx context.Context, businessID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&entity.Category{}).
		Scopes(BusinessScope(businessID)).
		Where("LOWER(name) = LOWER(?)", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
