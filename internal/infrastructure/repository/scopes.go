package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessScope returns a GORM scope that filters by business.
// It must be applied to every query on an entity below Business.
func BusinessScope(businessID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return BusinessScopeOn("", businessID)
}

// BusinessScopeOn is BusinessScope qualified with a table name, for joins.
func BusinessScopeOn(table string, businessID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if businessID == uuid.Nil {
			// Fail-safe: no business context means no rows
			return db.Where("1 = 0")
		}
		col := "business_id"
		if table != "" {
			col = table + ".business_id"
		}
		return db.Where(col+" = ?", businessID)
	}
}

// SearchScope matches term case-insensitively against any of columns.
// LOWER/LIKE is used instead of ILIKE so the query runs on SQLite too.
func SearchScope(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + strings.ToLower(term) + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + ") LIKE ?"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
