package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "SALES_CATEGORY_NAME", "RECENT_HISTORY_LIMIT", "ADMIN_TOKEN_HASH"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ledgerbook.db", cfg.DBDSN)
	assert.Equal(t, "Vendas", cfg.SalesCategoryName)
	assert.Equal(t, "#4F46E5", cfg.SalesCategoryColor)
	assert.Equal(t, 20, cfg.RecentHistoryLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RECENT_HISTORY_LIMIT", "5")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")
	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.RecentHistoryLimit)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
}

func TestConfigLogRedactsAdminHash(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	cfg := Config{AdminTokenHash: "$2a$10$secret"}
	assert.NoError(t, cfg.MarshalLogObject(enc))
	for _, v := range enc.Fields {
		assert.NotEqual(t, "$2a$10$secret", v)
	}
	assert.Equal(t, true, enc.Fields["admin_enabled"])
}
