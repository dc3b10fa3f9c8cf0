package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	POS       POSConfig
	Plans     PlanLimits
	Printer   PrinterConfig
	Email     EmailConfig
	OAuth     OAuthConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Debug    bool
	Timezone string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	Path     string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// POSConfig holds point-of-sale defaults.
type POSConfig struct {
	DefaultTaxRate    float64
	LowStockThreshold int
	TrialDays         int
	Currency          string
}

// PlanLimits caps users, branches and products per subscription plan.
// A zero or negative value means unlimited.
type PlanLimits struct {
	Users    map[string]int
	Branches map[string]int
	Products map[string]int
}

// Limit returns the cap for plan within table, or -1 when unlimited.
func (p PlanLimits) Limit(table map[string]int, plan string) int {
	n, ok := table[plan]
	if !ok || n <= 0 {
		return -1
	}
	return n
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	CharWidth int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendSuccessURL string
	FrontendErrorURL   string
}

// SeedConfig describes an optional demo business created on first boot.
type SeedConfig struct {
	BusinessName string
	AdminUser    string
	AdminEmail   string
	AdminPass    string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "pos-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_PATH", "./data/pos.db")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 1)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("POS_DEFAULT_TAX_RATE", 16)
	viper.SetDefault("POS_LOW_STOCK_THRESHOLD", 10)
	viper.SetDefault("POS_TRIAL_DAYS", 30)
	viper.SetDefault("POS_CURRENCY", "$")
	viper.SetDefault("PLAN_BASIC_USERS", 5)
	viper.SetDefault("PLAN_PREMIUM_USERS", 10)
	viper.SetDefault("PLAN_ENTERPRISE_USERS", 0)
	viper.SetDefault("PLAN_BASIC_BRANCHES", 3)
	viper.SetDefault("PLAN_PREMIUM_BRANCHES", 5)
	viper.SetDefault("PLAN_ENTERPRISE_BRANCHES", 0)
	viper.SetDefault("PLAN_BASIC_PRODUCTS", 100)
	viper.SetDefault("PLAN_PREMIUM_PRODUCTS", 500)
	viper.SetDefault("PLAN_ENTERPRISE_PRODUCTS", 0)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_CHAR_WIDTH", 48)
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "POS")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			Debug:    viper.GetBool("APP_DEBUG"),
			Timezone: viper.GetString("APP_TIMEZONE"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
			Path:     viper.GetString("DB_PATH"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		POS: POSConfig{
			DefaultTaxRate:    viper.GetFloat64("POS_DEFAULT_TAX_RATE"),
			LowStockThreshold: viper.GetInt("POS_LOW_STOCK_THRESHOLD"),
			TrialDays:         viper.GetInt("POS_TRIAL_DAYS"),
			Currency:          viper.GetString("POS_CURRENCY"),
		},
		Plans: PlanLimits{
			Users: map[string]int{
				"basic":      viper.GetInt("PLAN_BASIC_USERS"),
				"premium":    viper.GetInt("PLAN_PREMIUM_USERS"),
				"enterprise": viper.GetInt("PLAN_ENTERPRISE_USERS"),
			},
			Branches: map[string]int{
				"basic":      viper.GetInt("PLAN_BASIC_BRANCHES"),
				"premium":    viper.GetInt("PLAN_PREMIUM_BRANCHES"),
				"enterprise": viper.GetInt("PLAN_ENTERPRISE_BRANCHES"),
			},
			Products: map[string]int{
				"basic":      viper.GetInt("PLAN_BASIC_PRODUCTS"),
				"premium":    viper.GetInt("PLAN_PREMIUM_PRODUCTS"),
				"enterprise": viper.GetInt("PLAN_ENTERPRISE_PRODUCTS"),
			},
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			CharWidth: viper.GetInt("PRINTER_CHAR_WIDTH"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("SMTP_FROM_NAME"),
			FromEmail:    viper.GetString("SMTP_FROM_EMAIL"),
			FrontendURL:  viper.GetString("FRONTEND_URL"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  viper.GetString("GOOGLE_REDIRECT_URL"),
			FrontendSuccessURL: viper.GetString("GOOGLE_FRONTEND_SUCCESS_URL"),
			FrontendErrorURL:   viper.GetString("GOOGLE_FRONTEND_ERROR_URL"),
		},
		Seed: SeedConfig{
			BusinessName: viper.GetString("SEED_BUSINESS_NAME"),
			AdminUser:    viper.GetString("SEED_ADMIN_USERNAME"),
			AdminEmail:   viper.GetString("SEED_ADMIN_EMAIL"),
			AdminPass:    viper.GetString("SEED_ADMIN_PASSWORD"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// IsSQLite reports whether the local file driver is selected.
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Driver == "sqlite"
}
