package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	LogLevel string
	LogEnc   string

	// bcrypt hash of the admin token; empty disables admin routes
	AdminTokenHash string

	SalesCategoryName  string
	SalesCategoryColor string
	RecentHistoryLimit int
	RateLimitPerMin    int
}

// Load reads .env (if present) and then the environment. Variables already
// set in the environment win over .env.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:               getEnv("PORT", "8080"),
		DBDSN:              getEnv("DB_DSN", "ledgerbook.db"), // sqlite file in working dir
		LogFile:            getEnv("LOG_FILE", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogEnc:             getEnv("LOG_ENCODING", "json"),
		AdminTokenHash:     getEnv("ADMIN_TOKEN_HASH", ""),
		SalesCategoryName:  getEnv("SALES_CATEGORY_NAME", "Vendas"),
		SalesCategoryColor: getEnv("SALES_CATEGORY_COLOR", "#4F46E5"),
		RecentHistoryLimit: getEnvInt("RECENT_HISTORY_LIMIT", 20),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}
}

// MarshalLogObject lets the config be logged at startup without the secret.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("port", c.Port)
	enc.AddString("db_dsn", c.DBDSN)
	enc.AddString("log_file", c.LogFile)
	enc.AddString("log_level", c.LogLevel)
	enc.AddBool("admin_enabled", c.AdminTokenHash != "")
	enc.AddString("sales_category", c.SalesCategoryName)
	enc.AddInt("recent_history_limit", c.RecentHistoryLimit)
	enc.AddInt("rate_limit_per_min", c.RateLimitPerMin)
	return nil
}

func (c Config) Field() zap.Field { return zap.Object("config", c) }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
