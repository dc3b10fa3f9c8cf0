package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/pos-api/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDuplicate is returned by repositories when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate key")

// Open connects to the configured driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "", "postgres":
		return NewPostgresDB(&cfg.Database, cfg.App.Debug)
	case "sqlite":
		return NewSQLiteDB(cfg.Database.Path, cfg.App.Debug)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
}

func gormConfig(debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		Logger: newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags), level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// newLogger logs slow queries and real errors. Repositories return (nil, nil)
// on a miss, so record-not-found is not an error worth a log line.
func newLogger(w logger.Writer, level logger.LogLevel) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// IsDuplicate reports whether err is a unique violation from either driver.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// TranslateError maps driver-specific unique violations onto ErrDuplicate.
func TranslateError(err error) error {
	if IsDuplicate(err) && !errors.Is(err, ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
