package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/validation"
)

// CategoryService manages the per-business category tree
type CategoryService struct {
	tx           repository.Transactor
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(tx repository.Transactor, categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) *CategoryService {
	return &CategoryService{
		tx:           tx,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// CategoryListItem is a category with an optional active product count
type CategoryListItem struct {
	entity.Category
	ProductCount *int64 `json:"product_count,omitempty"`
}

// ListCategories returns every category ordered by name
func (s *CategoryService) ListCategories(ctx context.Context, a actor.Context, includeProducts bool) ([]CategoryListItem, error) {
	categories, err := s.categoryRepo.ListAll(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}

	var counts map[uuid.UUID]int64
	if includeProducts {
		counts, err = s.productRepo.ActiveCountsByCategory(ctx, a.BusinessID)
		if err != nil {
			return nil, err
		}
	}

	items := make([]CategoryListItem, len(categories))
	for i, c := range categories {
		items[i] = CategoryListItem{Category: c}
		if includeProducts {
			n := counts[c.ID]
			items[i].ProductCount = &n
		}
	}
	return items, nil
}

// CategoryNode is one node of the nested category tree
type CategoryNode struct {
	ID           uuid.UUID      `json:"id"`
	ParentID     *uuid.UUID     `json:"parent_id,omitempty"`
	Name         string         `json:"name"`
	Description  *string        `json:"description,omitempty"`
	Status       enum.Status    `json:"status"`
	Level        int            `json:"level"`
	Path         string         `json:"path"`
	ProductCount int64          `json:"product_count"`
	Children     []CategoryNode `json:"children"`
}

// CategoryTree returns the categories nested under their parents
func (s *CategoryService) CategoryTree(ctx context.Context, a actor.Context) ([]CategoryNode, error) {
	categories, err := s.categoryRepo.ListAll(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	counts, err := s.productRepo.ActiveCountsByCategory(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]entity.Category)
	var roots []entity.Category
	known := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	for _, c := range categories {
		if c.ParentID == nil || !known[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var build func(c entity.Category, level int, prefix string) CategoryNode
	build = func(c entity.Category, level int, prefix string) CategoryNode {
		path := c.Name
		if prefix != "" {
			path = prefix + " > " + c.Name
		}
		node := CategoryNode{
			ID:           c.ID,
			ParentID:     c.ParentID,
			Name:         c.Name,
			Description:  c.Description,
			Status:       c.Status,
			Level:        level,
			Path:         path,
			ProductCount: counts[c.ID],
			Children:     []CategoryNode{},
		}
		for _, child := range children[c.ID] {
			node.Children = append(node.Children, build(child, level+1, path))
		}
		return node
	}

	tree := make([]CategoryNode, 0, len(roots))
	for _, r := range roots {
		tree = append(tree, build(r, 0, ""))
	}
	return tree, nil
}

// CategoryPath returns the chain of categories from the root down to id
func (s *CategoryService) CategoryPath(ctx context.Context, a actor.Context, id uuid.UUID) ([]entity.Category, error) {
	categories, err := s.categoryRepo.ListAll(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	byID := indexCategories(categories)
	if _, ok := byID[id]; !ok {
		return nil, apperror.NewNotFoundError("Category")
	}

	var path []entity.Category
	seen := make(map[uuid.UUID]bool)
	for cur := byID[id]; cur != nil && !seen[cur.ID]; {
		seen[cur.ID] = true
		path = append(path, *cur)
		if cur.ParentID == nil {
			break
		}
		cur = byID[*cur.ParentID]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// CategoryInput is the create and update payload
type CategoryInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Description *string     `json:"description"`
	ParentID    *uuid.UUID  `json:"parent_id"`
	Status      enum.Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CreateCategory adds a category under an optional parent
func (s *CategoryService) CreateCategory(ctx context.Context, a actor.Context, input *CategoryInput) (*entity.Category, error) {
	if err := a.Require(enum.CapManageCategories); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	category := &entity.Category{
		BusinessID:  a.BusinessID,
		ParentID:    input.ParentID,
		Name:        strings.TrimSpace(input.Name),
		Description: optionalString(input.Description),
		Status:      enum.StatusActive,
	}
	if input.Status != "" {
		category.Status = input.Status
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if category.ParentID != nil {
			if _, err := s.getCategory(ctx, a, *category.ParentID, "parent_id"); err != nil {
				return err
			}
		}
		if err := s.ensureSiblingNameFree(ctx, a.BusinessID, category.ParentID, category.Name, nil); err != nil {
			return err
		}
		return s.categoryRepo.Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory updates name, description, status and parent
func (s *CategoryService) UpdateCategory(ctx context.Context, a actor.Context, id uuid.UUID, input *CategoryInput) (*entity.Category, error) {
	if err := a.Require(enum.CapManageCategories); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var category *entity.Category
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		category, err = s.getCategory(ctx, a, id, "")
		if err != nil {
			return err
		}
		if !sameParent(category.ParentID, input.ParentID) {
			if err := s.checkMove(ctx, a, category.ID, input.ParentID); err != nil {
				return err
			}
		}
		name := strings.TrimSpace(input.Name)
		if err := s.ensureSiblingNameFree(ctx, a.BusinessID, input.ParentID, name, &category.ID); err != nil {
			return err
		}

		category.Name = name
		category.Description = optionalString(input.Description)
		category.ParentID = input.ParentID
		if input.Status != "" {
			category.Status = input.Status
		}
		return s.categoryRepo.Update(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// MoveCategoryInput names the new parent; nil moves the category to the root
type MoveCategoryInput struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// MoveCategory re-parents a category. Moving under itself or one of its
// descendants fails with CategoryCycle.
func (s *CategoryService) MoveCategory(ctx context.Context, a actor.Context, id uuid.UUID, input *MoveCategoryInput) (*entity.Category, error) {
	if err := a.Require(enum.CapManageCategories); err != nil {
		return nil, err
	}

	var category *entity.Category
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		category, err = s.getCategory(ctx, a, id, "")
		if err != nil {
			return err
		}
		if err := s.checkMove(ctx, a, category.ID, input.ParentID); err != nil {
			return err
		}
		if err := s.ensureSiblingNameFree(ctx, a.BusinessID, input.ParentID, category.Name, &category.ID); err != nil {
			return err
		}
		category.ParentID = input.ParentID
		return s.categoryRepo.Update(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// checkMove validates that newParent exists in the business and is neither
// id itself nor one of its descendants.
func (s *CategoryService) checkMove(ctx context.Context, a actor.Context, id uuid.UUID, newParent *uuid.UUID) error {
	if newParent == nil {
		return nil
	}
	if *newParent == id {
		return apperror.ErrCategoryCycle
	}
	if _, err := s.getCategory(ctx, a, *newParent, "parent_id"); err != nil {
		return err
	}

	categories, err := s.categoryRepo.ListAll(ctx, a.BusinessID)
	if err != nil {
		return err
	}
	if isDescendant(indexCategories(categories), *newParent, id) {
		return apperror.ErrCategoryCycle
	}
	return nil
}

// DeleteCategory removes an empty category
func (s *CategoryService) DeleteCategory(ctx context.Context, a actor.Context, id uuid.UUID) error {
	if err := a.Require(enum.CapManageCategories); err != nil {
		return err
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		category, err := s.getCategory(ctx, a, id, "")
		if err != nil {
			return err
		}
		products, err := s.productRepo.CountByCategory(ctx, a.BusinessID, category.ID)
		if err != nil {
			return err
		}
		children, err := s.categoryRepo.CountChildren(ctx, a.BusinessID, category.ID)
		if err != nil {
			return err
		}
		if products > 0 || children > 0 {
			return apperror.ErrCategoryNotEmpty
		}
		return s.categoryRepo.Delete(ctx, a.BusinessID, category.ID)
	})
}

// getCategory loads a category of the business. When field is set a missing
// row is reported as an invalid value of that field instead of NotFound.
func (s *CategoryService) getCategory(ctx context.Context, a actor.Context, id uuid.UUID, field string) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		if field != "" {
			return nil, apperror.NewInvalidValue(field, "Category does not exist")
		}
		return nil, apperror.NewNotFoundError("Category")
	}
	return category, nil
}

func (s *CategoryService) ensureSiblingNameFree(ctx context.Context, businessID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) error {
	exists, err := s.categoryRepo.SiblingNameExists(ctx, businessID, parentID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicateName("A category with this name already exists at this level")
	}
	return nil
}

func indexCategories(categories []entity.Category) map[uuid.UUID]*entity.Category {
	byID := make(map[uuid.UUID]*entity.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	return byID
}

// isDescendant walks up from node and reports whether ancestor is reached.
// The walk stops on a repeated node so corrupt data cannot loop forever.
func isDescendant(byID map[uuid.UUID]*entity.Category, node, ancestor uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	for cur, ok := byID[node]; ok && !seen[cur.ID]; cur, ok = byID[*cur.ParentID] {
		if cur.ID == ancestor {
			return true
		}
		seen[cur.ID] = true
		if cur.ParentID == nil {
			return false
		}
	}
	return false
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
