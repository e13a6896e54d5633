package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("LISTING_AUTO_APPROVE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "strathmore.edu", cfg.Market.AllowedEmailDomain)
	assert.True(t, cfg.Market.ListingAutoApprove)
	assert.Equal(t, 100, cfg.Market.ItemPageSize)
	assert.Equal(t, 50, cfg.Market.NotificationPageSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/market.db")
	t.Setenv("LISTING_AUTO_APPROVE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Market.ListingAutoApprove)
	assert.Equal(t, "/tmp/market.db", cfg.Database.DSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	t.Parallel()

	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Database: "m", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=m sslmode=disable", pg.DSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", Database: "m"}
	assert.Equal(t, "u:p@tcp(db:3306)/m?charset=utf8mb4&parseTime=True&loc=UTC", my.DSN())
}
