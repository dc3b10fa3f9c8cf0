package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-api/pkg/email"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
)

type nopMailer struct{}

func (nopMailer) IsConfigured() bool                          { return false }
func (nopMailer) SendPasswordResetEmail(string, string) error { return nil }
func (nopMailer) SendReceiptEmail(email.ReceiptEmail) error   { return nil }

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Meta    struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	cfg := &config.Config{
		App:       config.AppConfig{Name: "pos-api"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 60},
		POS:       config.POSConfig{DefaultTaxRate: 16, LowStockThreshold: 10, TrialDays: 30, Currency: "$"},
		Plans: config.PlanLimits{
			Users:    map[string]int{"basic": 3},
			Branches: map[string]int{"basic": 2},
			Products: map[string]int{"basic": 50},
		},
	}

	tx := repository.NewTransactor(db)
	businessRepo := repository.NewBusinessRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewInventoryMovementRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewRegisterSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	jwt := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	events := service.NopPublisher()
	printerSvc := service.NewPrinterService(nil, 48)

	authSvc := service.NewAuthService(tx, businessRepo, branchRepo, userRepo, repository.NewPasswordResetTokenRepository(db), jwt, nopMailer{}, nil, "state", 30)
	h := &Handlers{
		Auth:            handler.NewAuthHandler(authSvc),
		Business:        handler.NewBusinessHandler(service.NewBusinessService(businessRepo, branchRepo, userRepo, productRepo, customerRepo, analyticsRepo, time.UTC)),
		Branch:          handler.NewBranchHandler(service.NewBranchService(tx, businessRepo, branchRepo, userRepo, sessionRepo, analyticsRepo, cfg.Plans)),
		Category:        handler.NewCategoryHandler(service.NewCategoryService(tx, categoryRepo, productRepo)),
		Customer:        handler.NewCustomerHandler(service.NewCustomerService(customerRepo, saleRepo, analyticsRepo)),
		Product:         handler.NewProductHandler(service.NewProductService(tx, businessRepo, productRepo, movementRepo, categoryRepo, cfg.Plans, cfg.POS), time.UTC),
		RegisterSession: handler.NewRegisterSessionHandler(service.NewRegisterSessionService(tx, sessionRepo, branchRepo, saleRepo, events, time.UTC), time.UTC),
		Sale:            handler.NewSaleHandler(service.NewSaleService(tx, saleRepo, sessionRepo, productRepo, movementRepo, customerRepo, events), time.UTC),
		Receipt:         handler.NewReceiptHandler(service.NewReceiptService(saleRepo, businessRepo, printerSvc, nopMailer{}, "$")),
		Report:          handler.NewReportHandler(service.NewReportService(saleRepo, analyticsRepo, businessRepo, branchRepo, time.UTC, "$")),
		User:            handler.NewUserHandler(service.NewUserService(tx, businessRepo, branchRepo, userRepo, cfg.Plans)),
		Printer:         handler.NewPrinterHandler(printerSvc),
		Events:          handler.NewEventsHandler(realtime.NewHub(nil)),
	}

	return Setup(h, &Deps{
		JWTManager:      jwt,
		Cfg:             cfg,
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		RateLimiter:     limiter,
		DB:              db,
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
}

func register(t *testing.T, r *gin.Engine) (token string, branchID string) {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"business_name":         "Corner Shop",
		"first_name":            "Ada",
		"username":              "ada_admin",
		"email":                 "ada@example.com",
		"password":              "secret123",
		"password_confirmation": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			BranchID string `json:"branch_id"`
		} `json:"user"`
	}
	decode(t, env.Data, &out)
	if out.AccessToken == "" || out.User.BranchID == "" {
		t.Fatalf("expected a token and a default branch, got %s", env.Data)
	}
	return out.AccessToken, out.User.BranchID
}

func TestHealth(t *testing.T) {
	r := newRouter(t, nil)
	w, _ := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["database"] != "ok" {
		t.Fatalf("expected database ok, got %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newRouter(t, nil)

	w, env := do(t, r, http.MethodGet, "/api/products", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env.Success || env.Message != "Unauthorized" {
		t.Fatalf("expected the unauthorized envelope, got %+v", env)
	}

	w, _ = do(t, r, http.MethodGet, "/api/products", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", w.Code)
	}
}

func TestLoginFailureEnvelope(t *testing.T) {
	r := newRouter(t, nil)
	register(t, r)

	w, env := do(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada_admin", "password": "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env.Success || env.Code != "InvalidCredentials" {
		t.Fatalf("expected InvalidCredentials, got %+v", env)
	}

	w, env = do(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada_admin", "password": "secret123"})
	if w.Code != http.StatusOK || !env.Success || env.Meta.RequestID == "" {
		t.Fatalf("expected a successful login with meta, got %d %+v", w.Code, env)
	}
}

func TestSaleFlowOverHTTP(t *testing.T) {
	r := newRouter(t, nil)
	token, branchID := register(t, r)

	w, env := do(t, r, http.MethodPost, "/api/products", token, map[string]interface{}{
		"name":          "Cola",
		"unit_type":     "unit",
		"price":         2.5,
		"tax_rate":      0,
		"current_stock": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", w.Code, w.Body.String())
	}
	var product struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &product)

	w, env = do(t, r, http.MethodPost, "/api/register-sessions", token, map[string]interface{}{"initial_cash": 20})
	if w.Code != http.StatusCreated {
		t.Fatalf("open session: %d %s", w.Code, w.Body.String())
	}
	var session struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &session)

	w, env = do(t, r, http.MethodPost, "/api/register-sessions", token, map[string]interface{}{})
	if w.Code != http.StatusBadRequest || env.Code != "SessionAlreadyOpen" {
		t.Fatalf("expected SessionAlreadyOpen, got %d %+v", w.Code, env)
	}

	sale := map[string]interface{}{
		"branch_id":           branchID,
		"register_session_id": session.ID,
		"payment_method":      "cash",
		"items":               []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
	}

	w, env = do(t, r, http.MethodPost, "/api/sales", token, sale)
	if w.Code != http.StatusBadRequest || env.Errors["Idempotency-Key"] == "" {
		t.Fatalf("expected a missing key error, got %d %+v", w.Code, env)
	}

	w, env = do(t, r, http.MethodPost, "/api/sales", token, sale, "Idempotency-Key", "sale-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("create sale: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &created)

	w, env = do(t, r, http.MethodPost, "/api/sales", token, sale, "Idempotency-Key", "sale-1")
	if w.Code != http.StatusCreated || w.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatalf("expected a replayed response, got %d", w.Code)
	}
	var replayed struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &replayed)
	if replayed.ID != created.ID {
		t.Fatalf("expected replay of sale %s, got %s", created.ID, replayed.ID)
	}

	w, env = do(t, r, http.MethodGet, "/api/sales?per_page=5", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list sales: %d", w.Code)
	}
	var list struct {
		Total   int64             `json:"total"`
		PerPage int               `json:"per_page"`
		Sales   []json.RawMessage `json:"sales"`
	}
	decode(t, env.Data, &list)
	if list.Total != 1 || list.PerPage != 5 || len(list.Sales) != 1 {
		t.Fatalf("expected one sale on a page of 5, got %+v", list)
	}

	w, env = do(t, r, http.MethodGet, "/api/products/"+product.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get product: %d", w.Code)
	}
	var stocked struct {
		CurrentStock decimal.Decimal `json:"current_stock"`
	}
	decode(t, env.Data, &stocked)
	if !stocked.CurrentStock.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected stock 8 after the sale, got %s", stocked.CurrentStock)
	}

	w, _ = do(t, r, http.MethodGet, "/api/sales/"+created.ID+"/receipt/pdf", token, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected a PDF receipt, got %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	w, env = do(t, r, http.MethodGet, "/api/sales/not-a-uuid", token, nil)
	if w.Code != http.StatusBadRequest || env.Code != "InvalidValue" {
		t.Fatalf("expected InvalidValue for a bad id, got %d %+v", w.Code, env)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Requests: 2, Window: time.Hour})
	r := newRouter(t, limiter)

	creds := map[string]string{"username": "nobody", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/auth/login", "", creds)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
	w, env := do(t, r, http.MethodPost, "/api/auth/login", "", creds)
	if w.Code != http.StatusTooManyRequests || env.Success {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
