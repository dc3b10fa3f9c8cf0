package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/email"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// fakeMailer records outbound mail instead of sending it.
type fakeMailer struct {
	configured bool
	fail       bool
	resets     []string
	receipts   []email.ReceiptEmail
}

func (m *fakeMailer) IsConfigured() bool { return m.configured }

func (m *fakeMailer) SendPasswordResetEmail(to, token string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.resets = append(m.resets, token)
	return nil
}

func (m *fakeMailer) SendReceiptEmail(r email.ReceiptEmail) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.receipts = append(m.receipts, r)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	events *recorder
	mailer *fakeMailer

	auth       *AuthService
	businesses *BusinessService
	users      *UserService
	branches   *BranchService
	categories *CategoryService
	products   *ProductService
	customers  *CustomerService
	sessions   *RegisterSessionService
	sales      *SaleService
	receipts   *ReceiptService
	reports    *ReportService
}

var testLimits = config.PlanLimits{
	Users:    map[string]int{"basic": 3},
	Branches: map[string]int{"basic": 2},
	Products: map[string]int{"basic": 50},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "pos.db"), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tx := repository.NewTransactor(db)
	businessRepo := repository.NewBusinessRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewPasswordResetTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewInventoryMovementRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewRegisterSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	env := &testEnv{db: db, events: &recorder{}, mailer: &fakeMailer{configured: true}}
	jwt := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	pos := config.POSConfig{DefaultTaxRate: 16, LowStockThreshold: 10, TrialDays: 30, Currency: "$"}

	env.auth = NewAuthService(tx, businessRepo, branchRepo, userRepo, resetRepo, jwt, env.mailer, nil, "state-secret", 30)
	env.businesses = NewBusinessService(businessRepo, branchRepo, userRepo, productRepo, customerRepo, analyticsRepo, time.UTC)
	env.users = NewUserService(tx, businessRepo, branchRepo, userRepo, testLimits)
	env.branches = NewBranchService(tx, businessRepo, branchRepo, userRepo, sessionRepo, analyticsRepo, testLimits)
	env.categories = NewCategoryService(tx, categoryRepo, productRepo)
	env.products = NewProductService(tx, businessRepo, productRepo, movementRepo, categoryRepo, testLimits, pos)
	env.customers = NewCustomerService(customerRepo, saleRepo, analyticsRepo)
	env.sessions = NewRegisterSessionService(tx, sessionRepo, branchRepo, saleRepo, env.events, time.UTC)
	env.sales = NewSaleService(tx, saleRepo, sessionRepo, productRepo, movementRepo, customerRepo, env.events)
	env.receipts = NewReceiptService(saleRepo, businessRepo, NewPrinterService(nil, 0), env.mailer, "$")
	env.reports = NewReportService(saleRepo, analyticsRepo, businessRepo, branchRepo, time.UTC, "$")
	return env
}

// register signs up a business and returns its administrator as an actor.
func (e *testEnv) register(t *testing.T, name string) actor.Context {
	t.Helper()
	res, err := e.auth.Register(context.Background(), &RegisterInput{
		BusinessName:         name,
		FirstName:            "Admin",
		LastName:             name,
		Username:             "admin_" + uuid.NewString()[:8],
		Email:                uuid.NewString()[:8] + "@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return actorFor(res.User)
}

func actorFor(u *entity.User) actor.Context {
	a := actor.New(u.ID, u.BusinessID, u.BranchID, u.Role, u.Capabilities())
	a.Username = u.Username
	return a
}

// cashier creates a cashier on the admin's branch.
func (e *testEnv) cashier(t *testing.T, admin actor.Context) actor.Context {
	t.Helper()
	name := "cashier_" + uuid.NewString()[:8]
	detail, err := e.users.CreateUser(context.Background(), admin, &CreateUserInput{
		FirstName:            "Cash",
		LastName:             "Ier",
		Username:             name,
		Email:                name + "@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 enum.RoleCashier,
		BranchID:             admin.BranchID,
	})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}
	return actorFor(detail.User)
}

func (e *testEnv) product(t *testing.T, a actor.Context, name string, price, tax, stock int64) *entity.Product {
	t.Helper()
	p := dec(price)
	r := dec(tax)
	s := dec(stock)
	product, err := e.products.CreateProduct(context.Background(), a, &ProductInput{
		Name:         name,
		UnitType:     enum.UnitTypeUnit,
		Price:        &p,
		TaxRate:      &r,
		CurrentStock: &s,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func (e *testEnv) openSession(t *testing.T, a actor.Context, cash int64) *entity.RegisterSession {
	t.Helper()
	session, err := e.sessions.OpenSession(context.Background(), a, &OpenSessionInput{InitialCash: dec(cash)})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return session
}

func (e *testEnv) stock(t *testing.T, a actor.Context, id uuid.UUID) decimal.Decimal {
	t.Helper()
	p, err := e.products.GetProduct(context.Background(), a, id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.CurrentStock
}

// ledgerMatches asserts that current stock equals the signed movement sum.
func (e *testEnv) ledgerMatches(t *testing.T, a actor.Context, id uuid.UUID) {
	t.Helper()
	sum, err := repository.NewInventoryMovementRepository(e.db).SumByProduct(context.Background(), a.BusinessID, id)
	if err != nil {
		t.Fatalf("sum movements: %v", err)
	}
	if current := e.stock(t, a, id); !current.Equal(sum) {
		t.Fatalf("expected stock %s to equal movement sum %s", current, sum)
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func decStr(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

// expectReason fails unless err is an AppError with the given reason code.
func expectReason(t *testing.T, err error, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", reason)
	}
	if !apperror.IsAppError(err) {
		t.Fatalf("expected AppError %s, got %v", reason, err)
	}
	if appErr := apperror.GetAppError(err); appErr.Reason != reason {
		t.Fatalf("expected reason %s, got %s (%s)", reason, appErr.Reason, appErr.Message)
	}
}

func expectKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if apperror.KindOf(err) != kind {
		t.Fatalf("expected kind %s, got %v", kind, err)
	}
}
