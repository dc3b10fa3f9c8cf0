package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/email"
	"github.com/shopspring/decimal"
)

// timeNow is the service clock. All persisted times are UTC.
var timeNow = func() time.Time { return time.Now().UTC() }

// EventPublisher receives business events once their transaction has committed.
type EventPublisher interface {
	Publish(ev realtime.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(realtime.Event) {}

// NopPublisher discards events.
func NopPublisher() EventPublisher { return nopPublisher{} }

// Mailer sends the outbound emails the services need.
type Mailer interface {
	IsConfigured() bool
	SendPasswordResetEmail(toEmail, token string) error
	SendReceiptEmail(r email.ReceiptEmail) error
}

// publish stamps and forwards an event.
func publish(p EventPublisher, typ string, businessID uuid.UUID, branchID *uuid.UUID, data interface{}) {
	if p == nil {
		return
	}
	p.Publish(realtime.Event{
		Type:       typ,
		BusinessID: businessID,
		BranchID:   branchID,
		Data:       data,
		Timestamp:  timeNow(),
	})
}

// planGuard enforces per-plan resource caps.
type planGuard struct {
	limits       config.PlanLimits
	businessRepo repository.BusinessRepository
}

func (g planGuard) check(ctx context.Context, businessID uuid.UUID, table map[string]int, feature string, count func() (int64, error)) error {
	business, err := g.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business == nil {
		return apperror.NewNotFoundError("Business")
	}
	limit := g.limits.Limit(table, string(business.SubscriptionPlan))
	if limit < 0 {
		return nil
	}
	n, err := count()
	if err != nil {
		return err
	}
	if n >= int64(limit) {
		return apperror.NewLimitReached(feature)
	}
	return nil
}

// stockChange is one signed adjustment of a product's stock.
type stockChange struct {
	BusinessID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UserID      *uuid.UUID
	Delta       decimal.Decimal
	Type        enum.MovementType
	ReferenceID *uuid.UUID
	Notes       string
}

// stockLedger is the single path through which stock changes. It must run
// inside a transaction so the movement row and the stock update commit together.
type stockLedger struct {
	products  repository.ProductRepository
	movements repository.InventoryMovementRepository
}

func (l stockLedger) apply(ctx context.Context, c stockChange) (*entity.InventoryMovement, error) {
	ok, err := l.products.AdjustStock(ctx, c.BusinessID, c.ProductID, c.Delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		if c.Delta.IsNegative() {
			return nil, apperror.NewInsufficientStock(c.ProductName)
		}
		return nil, apperror.ErrProductNotFound
	}

	m := &entity.InventoryMovement{
		BusinessID:   c.BusinessID,
		ProductID:    c.ProductID,
		UserID:       c.UserID,
		MovementType: c.Type,
		Quantity:     c.Delta,
		ReferenceID:  c.ReferenceID,
	}
	if c.Notes != "" {
		notes := c.Notes
		m.Notes = &notes
	}
	if err := l.movements.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// logSideEffect records a failure that must not fail the request.
func logSideEffect(what string, err error) {
	if err != nil {
		log.Printf("%s failed: %v", what, err)
	}
}

// optionalString trims s and returns nil when it is empty.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
