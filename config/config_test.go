package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "date", cfg.Complaint.IDFormat)
	assert.Equal(t, "AWZ", cfg.Complaint.IDPrefix)
	assert.Equal(t, 5, cfg.Complaint.IDMaxAttempts)
	assert.Equal(t, time.Minute, cfg.Complaint.QRBackfillInterval)
	assert.Equal(t, "local", cfg.Media.Backend)
	assert.Same(t, cfg, AppConfig)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AWAZGRAM_SERVER_PORT", "9090")
	t.Setenv("AWAZGRAM_COMPLAINT_ID_FORMAT", "uuid")
	t.Setenv("AWAZGRAM_COMPLAINT_QR_BACKFILL_INTERVAL", "30s")
	t.Setenv("AWAZGRAM_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "uuid", cfg.Complaint.IDFormat)
	assert.Equal(t, 30*time.Second, cfg.Complaint.QRBackfillInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestServerConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, ServerConfig{}.Location())
	assert.Equal(t, time.UTC, ServerConfig{TimeZone: "Not/AZone"}.Location())
	assert.Equal(t, "Asia/Kolkata", ServerConfig{TimeZone: "Asia/Kolkata"}.Location().String())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())

	c.URL = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", c.DSN())
}
