package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no config.yaml is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8069", cfg.Odoo.URL)
	assert.Equal(t, 60, cfg.Odoo.TimeoutSecs)
	assert.Equal(t, "leads_mapped.csv", cfg.Import.MappedCSV)
	assert.Equal(t, "accepted_leads.xlsx", cfg.Import.AcceptedXLS)
	assert.Equal(t, "rejected_leads.xlsx", cfg.Import.RejectedXLS)
	assert.Equal(t, "imported_new_stage.csv", cfg.Import.ImportedCSV)
	assert.Equal(t, "New", cfg.Import.StageName)
	assert.Equal(t, "Sales", cfg.Import.TeamName)
	assert.Equal(t, "Welcome Email", cfg.Notify.WelcomeTemplate)
	assert.Equal(t, "Apology Email", cfg.Notify.ApologyTemplate)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
odoo:
  url: https://crm.example.com
  database: prod
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com", cfg.Odoo.URL)
	assert.Equal(t, "prod", cfg.Odoo.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "Welcome Email", cfg.Notify.WelcomeTemplate)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEADFLOW_ODOO_DATABASE", "odoo18")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "odoo18", cfg.Odoo.Database)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
