package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ESTOQUE_DB_DRIVER", "ESTOQUE_DB_PATH", "DATABASE_URL",
		"ESTOQUE_ADMIN_PASSWORD", "ESTOQUE_LOG_DIR", "ESTOQUE_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESTOQUE_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveConfig_EncryptsSecrets(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Database.Password = "pg-secret"
	cfg.Security.AdminPassword = "troque-me"
	cfg.Inventory.DefaultSectors = []string{"Padaria"}
	require.NoError(t, SaveConfig(path, cfg))

	// Caller's copy stays plaintext
	assert.Equal(t, "pg-secret", cfg.Database.Password)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pg-secret")
	assert.NotContains(t, string(raw), "troque-me")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "pg-secret", loaded.Database.Password)
	assert.Equal(t, "troque-me", loaded.Security.AdminPassword)
	assert.Equal(t, []string{"Padaria"}, loaded.Inventory.DefaultSectors)

	_, err = os.Stat(filepath.Join(dir, "key.bin"))
	assert.NoError(t, err)
}

func TestLoadConfig_PlaintextSecretsAreKept(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.json")

	data, err := json.Marshal(map[string]interface{}{
		"security": map[string]interface{}{"admin_password": "plain", "bcrypt_cost": 4},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "plain", cfg.Security.AdminPassword)
	assert.Equal(t, 4, cfg.Security.BcryptCost)
	assert.Equal(t, "sqlite", cfg.Database.Driver, "unset fields keep defaults")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)
	t.Setenv("ESTOQUE_DB_DRIVER", "postgres")
	t.Setenv("ESTOQUE_DB_PATH", "/tmp/other.db")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/estoque")
	t.Setenv("ESTOQUE_ADMIN_PASSWORD", "from-env")
	t.Setenv("ESTOQUE_LOG_DIR", "/var/log/estoque")
	t.Setenv("ESTOQUE_DEBUG", "true")

	cfg, err := LoadConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, "postgres://u:p@localhost/estoque", cfg.Database.URL)
	assert.Equal(t, "from-env", cfg.Security.AdminPassword)
	assert.Equal(t, "/var/log/estoque", cfg.System.LogDir)
	assert.True(t, cfg.System.Debug)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetConfigPath_UsesOverrideDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "estoque")
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
