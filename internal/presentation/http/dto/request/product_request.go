package request

import (
	"time"

	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// ProductQuery represents product list filters
type ProductQuery struct {
	PageQuery
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status"`
	UnitType   string `form:"unit_type"`
}

// Filter converts the query into a repository filter
func (q ProductQuery) Filter() (repository.ProductFilter, error) {
	var f repository.ProductFilter
	var err error
	if f.CategoryID, err = ParseUUID("category_id", q.CategoryID); err != nil {
		return f, err
	}
	f.Search = q.Search
	f.Status = enum.Status(q.Status)
	if f.Status != "" && !f.Status.IsValid() {
		return f, apperror.NewInvalidValue("status", "must be active or inactive")
	}
	f.UnitType = enum.UnitType(q.UnitType)
	if f.UnitType != "" && !f.UnitType.IsValid() {
		return f, apperror.NewInvalidValue("unit_type", "must be unit, weight or combo")
	}
	return f, nil
}

// MovementQuery represents stock ledger filters with cursor pagination
type MovementQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// Filter converts the query into a repository filter and cursor
func (q MovementQuery) Filter(loc *time.Location) (repository.MovementFilter, *pagination.CursorParams, error) {
	var f repository.MovementFilter
	var err error
	if f.From, err = parseFrom("from", q.From, loc); err != nil {
		return f, nil, err
	}
	if f.To, err = parseTo("to", q.To, loc); err != nil {
		return f, nil, err
	}
	return f, &pagination.CursorParams{Cursor: q.Cursor, Limit: q.Limit}, nil
}

// CategoryQuery represents category list options
type CategoryQuery struct {
	IncludeProducts bool `form:"include_products"`
}
