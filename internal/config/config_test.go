package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyConfig writes an empty YAML file so Load exercises its defaults
// without picking up a real config from the working directory.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(emptyConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "0 6 * * 1", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Market.BaseURL)
	assert.Equal(t, 1000, cfg.Market.RequestIntervalMS)
	assert.Equal(t, "service_account.json", cfg.Sheets.CredentialsFile)
	assert.Equal(t, "admin", cfg.Auth.AdminUser)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Market.Categories)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.yaml")
	content := `
server:
  address: ":9090"
schedule:
  cron: "30 5 * * 2"
  enabled: false
sheets:
  spreadsheet_id: "sheet-123"
market:
  categories:
    - name: Energy
      symbols:
        - ticker: "BZ=F"
          label: Brent
        - ticker: "CL=F"
          label: WTI
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "30 5 * * 2", cfg.Schedule.Cron)
	assert.False(t, cfg.Schedule.Enabled)
	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)

	require.Len(t, cfg.Market.Categories, 1)
	assert.Equal(t, "Energy", cfg.Market.Categories[0].Name)
	require.Len(t, cfg.Market.Categories[0].Symbols, 2)
	assert.Equal(t, "BZ=F", cfg.Market.Categories[0].Symbols[0].Ticker)
	assert.Equal(t, "Brent", cfg.Market.Categories[0].Symbols[0].Label)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/tracker")
	t.Setenv("TRACKER_ADDR", ":7070")
	t.Setenv("SPREADSHEET_ID", "env-sheet")

	cfg, err := Load(emptyConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/tracker", cfg.Database.DSN)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "env-sheet", cfg.Sheets.SpreadsheetID)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("TRACKER_JWT_SECRET", "sekrit")
	t.Setenv("TRACKER_ADMIN_PASSWORD", "hunter2")

	e, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, `{"type":"service_account"}`, e.SheetsCredentials)
	assert.Equal(t, "sekrit", e.JWTSecret)
	assert.Equal(t, "hunter2", e.AdminPassword)
}
