package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/sangkips/pos-api/pkg/utils"
)

const dayLayout = "2006-01-02"

// PageQuery represents page-based pagination parameters
type PageQuery struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// Params returns validated pagination parameters
func (q PageQuery) Params() *pagination.PaginationParams {
	p := &pagination.PaginationParams{Page: q.Page, PerPage: q.PerPage}
	p.Validate()
	return p
}

// ParseUUID parses an optional id from a query string. Empty input yields nil.
func ParseUUID(field, raw string) (*uuid.UUID, error) {
	id, err := utils.ParseOptionalUUID(raw)
	if err != nil {
		return nil, apperror.NewInvalidValue(field, "must be a valid UUID")
	}
	return id, nil
}

// parseFrom reads an inclusive lower bound. A bare date means the start of that day in loc.
func parseFrom(field, raw string, loc *time.Location) (*time.Time, error) {
	t, _, err := parseTime(field, raw, loc)
	return t, err
}

// parseTo reads an upper bound and returns it exclusive. A bare date covers
// the whole day, so the bound moves to the next midnight.
func parseTo(field, raw string, loc *time.Location) (*time.Time, error) {
	t, day, err := parseTime(field, raw, loc)
	if err != nil || t == nil {
		return nil, err
	}
	if day {
		next := t.AddDate(0, 0, 1)
		return &next, nil
	}
	return t, nil
}

func parseTime(field, raw string, loc *time.Location) (*time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dayLayout, raw, loc); err == nil {
		return &t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, false, nil
	}
	return nil, false, apperror.NewInvalidValue(field, "must be a date (YYYY-MM-DD) or RFC3339 timestamp")
}

// BranchQuery represents branch list filters
type BranchQuery struct {
	PageQuery
	Search string `form:"search"`
	Status string `form:"status"`
}

// Filter converts the query into a repository filter
func (q BranchQuery) Filter() (repository.BranchFilter, error) {
	status := enum.Status(q.Status)
	if status != "" && !status.IsValid() {
		return repository.BranchFilter{}, apperror.NewInvalidValue("status", "must be active or inactive")
	}
	return repository.BranchFilter{Search: q.Search, Status: status}, nil
}

// CustomerQuery represents customer list filters
type CustomerQuery struct {
	PageQuery
	Search string `form:"search"`
}

// UserQuery represents user list filters
type UserQuery struct {
	PageQuery
	Search   string `form:"search"`
	Role     string `form:"role"`
	Status   string `form:"status"`
	BranchID string `form:"branch_id"`
}

// Filter converts the query into a repository filter
func (q UserQuery) Filter() (repository.UserFilter, error) {
	role := enum.Role(q.Role)
	if role != "" && !role.IsValid() {
		return repository.UserFilter{}, apperror.NewInvalidValue("role", "must be admin, manager or cashier")
	}
	status := enum.Status(q.Status)
	if status != "" && !status.IsValid() {
		return repository.UserFilter{}, apperror.NewInvalidValue("status", "must be active or inactive")
	}
	branchID, err := ParseUUID("branch_id", q.BranchID)
	if err != nil {
		return repository.UserFilter{}, err
	}
	return repository.UserFilter{Search: q.Search, Role: role, Status: status, BranchID: branchID}, nil
}

// SessionQuery represents register session list filters
type SessionQuery struct {
	PageQuery
	BranchID string `form:"branch_id"`
	UserID   string `form:"user_id"`
	Status   string `form:"status"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// Filter converts the query into a repository filter
func (q SessionQuery) Filter(loc *time.Location) (repository.SessionFilter, error) {
	var f repository.SessionFilter
	var err error
	if f.BranchID, err = ParseUUID("branch_id", q.BranchID); err != nil {
		return f, err
	}
	if f.UserID, err = ParseUUID("user_id", q.UserID); err != nil {
		return f, err
	}
	f.Status = enum.SessionStatus(q.Status)
	if f.Status != "" && !f.Status.IsValid() {
		return f, apperror.NewInvalidValue("status", "must be open or closed")
	}
	if f.DateFrom, err = parseFrom("date_from", q.DateFrom, loc); err != nil {
		return f, err
	}
	if f.DateTo, err = parseTo("date_to", q.DateTo, loc); err != nil {
		return f, err
	}
	return f, nil
}

// SaleQuery represents sale list filters
type SaleQuery struct {
	PageQuery
	BranchID          string `form:"branch_id"`
	UserID            string `form:"user_id"`
	CustomerID        string `form:"customer_id"`
	RegisterSessionID string `form:"register_session_id"`
	DateFrom          string `form:"date_from"`
	DateTo            string `form:"date_to"`
	PaymentMethod     string `form:"payment_method"`
	PaymentStatus     string `form:"payment_status"`
}

// Filter converts the query into a repository filter
func (q SaleQuery) Filter(loc *time.Location) (repository.SaleFilter, error) {
	var f repository.SaleFilter
	var err error
	if f.BranchID, err = ParseUUID("branch_id", q.BranchID); err != nil {
		return f, err
	}
	if f.UserID, err = ParseUUID("user_id", q.UserID); err != nil {
		return f, err
	}
	if f.CustomerID, err = ParseUUID("customer_id", q.CustomerID); err != nil {
		return f, err
	}
	if f.RegisterSessionID, err = ParseUUID("register_session_id", q.RegisterSessionID); err != nil {
		return f, err
	}
	if f.DateFrom, err = parseFrom("date_from", q.DateFrom, loc); err != nil {
		return f, err
	}
	if f.DateTo, err = parseTo("date_to", q.DateTo, loc); err != nil {
		return f, err
	}
	f.PaymentMethod = enum.PaymentMethod(q.PaymentMethod)
	if f.PaymentMethod != "" && !f.PaymentMethod.IsValid() {
		return f, apperror.NewInvalidValue("payment_method", "must be cash, card or transfer")
	}
	f.PaymentStatus = enum.PaymentStatus(q.PaymentStatus)
	if f.PaymentStatus != "" && !f.PaymentStatus.IsValid() {
		return f, apperror.NewInvalidValue("payment_status", "must be completed or cancelled")
	}
	return f, nil
}
