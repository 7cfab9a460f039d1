package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries everything read from the environment at boot. Tax and
// service rates are configuration, not code: every derivation call
// site receives them from here.
type Config struct {
	Port        string
	DBDriver    string // "mysql" or "sqlite"
	DBDSN       string
	JWTSecret   string
	TaxRate     decimal.Decimal
	ServiceRate decimal.Decimal
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		DBDriver:  getEnv("DB_DRIVER", "mysql"),
		DBDSN:     os.Getenv("DB_DSN"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
	}

	var err error
	if cfg.TaxRate, err = decimalEnv("TAX_RATE", "0.10"); err != nil {
		return nil, err
	}
	if cfg.ServiceRate, err = decimalEnv("SERVICE_RATE", "0.05"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitDB opens the configured database connection.
func InitDB(cfg *Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = "restaurant.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for mysql")
		}
		return gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", key, d)
	}
	return d, nil
}
