package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"EstoqueApp/app/config"
	"EstoqueApp/app/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ESTOQUE_CONFIG_DIR", dir)
	t.Setenv("ESTOQUE_USER", "")
	t.Setenv("ESTOQUE_PASSWORD", "")
	t.Setenv("ESTOQUE_DB_DRIVER", "")
	t.Setenv("ESTOQUE_DB_PATH", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ESTOQUE_ADMIN_PASSWORD", "")

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "estoque.db")
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.System.LogDir = filepath.Join(dir, "logs")

	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.SaveConfig(path, cfg))
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	app := NewApp()
	app.LoggerService = services.NewNopLoggerService()

	var out bytes.Buffer
	cmd := newRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	app.shutdown()
	return out.String(), err
}

func TestCLI_ProductAndInventoryFlow(t *testing.T) {
	cfg := setupCLI(t)
	admin := []string{"-u", "admin", "-p", "admin"}

	_, err := runCLI(t, cfg, append(admin, "product", "add", "P1", "Picanha", "Açougue")...)
	require.NoError(t, err)

	out, err := runCLI(t, cfg, append(admin, "inventory", "add", "P1", "2,5")...)
	require.NoError(t, err)
	assert.Equal(t, "P1 total: 2.5\n", out)

	out, err = runCLI(t, cfg, append(admin, "inventory", "add", "P1", "--", "-1")...)
	require.NoError(t, err)
	assert.Equal(t, "P1 total: 1.5\n", out)

	out, err = runCLI(t, cfg, append(admin, "export", "inventory")...)
	require.NoError(t, err)
	assert.Equal(t, "Codigo;Descricao;Setor;Total\nP1;Picanha;Açougue;1.5\n", out)

	out, err = runCLI(t, cfg, append(admin, "inventory", "history")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Entrada")
	assert.Contains(t, out, "Saída")

	out, err = runCLI(t, cfg, append(admin, "summary")...)
	require.NoError(t, err)
	var summary services.InventorySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.TotalProducts)
	assert.Equal(t, 2, summary.Movements)
}

func TestCLI_RequiresLogin(t *testing.T) {
	cfg := setupCLI(t)

	_, err := runCLI(t, cfg, "product", "add", "P1", "Picanha", "Açougue")
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	_, err = runCLI(t, cfg, "-u", "admin", "-p", "wrong", "product", "add", "P1", "Picanha", "Açougue")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	for _, args := range [][]string{
		{"product", "list"},
		{"product", "pending"},
		{"inventory", "list"},
		{"inventory", "history"},
		{"sector", "list"},
	} {
		_, err = runCLI(t, cfg, args...)
		assert.ErrorIs(t, err, services.ErrPermissionDenied, args)
	}

	out, err := runCLI(t, cfg, "-u", "admin", "-p", "admin", "sector", "list")
	require.NoError(t, err)
	assert.Equal(t, "Açougue\nHortifruti\nOutros\n", out)
}

func TestCLI_UserPermissionsAndActiveSector(t *testing.T) {
	cfg := setupCLI(t)
	admin := []string{"-u", "admin", "-p", "admin"}

	_, err := runCLI(t, cfg, append(admin, "product", "add", "P1", "Picanha", "Açougue")...)
	require.NoError(t, err)
	_, err = runCLI(t, cfg, append(admin, "user", "add", "maria", "1234", "--inventory")...)
	require.NoError(t, err)

	maria := []string{"-u", "maria", "-p", "1234"}
	_, err = runCLI(t, cfg, append(maria, "product", "add", "P2", "Alface", "Hortifruti")...)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	_, err = runCLI(t, cfg, append(maria, "--active-sector", "Hortifruti", "inventory", "add", "P1", "1")...)
	assert.ErrorIs(t, err, services.ErrSectorMismatch)

	_, err = runCLI(t, cfg, append(maria, "--active-sector", "Açougue", "inventory", "add", "P1", "1")...)
	require.NoError(t, err)

	_, err = runCLI(t, cfg, append(admin, "user", "delete", "admin")...)
	assert.ErrorIs(t, err, services.ErrAdminProtected)

	// Reading stock needs the reports permission; any user may list sectors
	_, err = runCLI(t, cfg, append(maria, "inventory", "list")...)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
	_, err = runCLI(t, cfg, append(maria, "sector", "list")...)
	require.NoError(t, err)

	_, err = runCLI(t, cfg, append(maria, "user", "passwd", "maria", "nova")...)
	require.NoError(t, err)
	_, err = runCLI(t, cfg, "-u", "maria", "-p", "nova", "inventory", "add", "P1", "1")
	require.NoError(t, err)
}

func TestCLI_ImportAndAssign(t *testing.T) {
	cfg := setupCLI(t)
	admin := []string{"-u", "admin", "-p", "admin"}

	csvPath := filepath.Join(t.TempDir(), "produtos.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("codigo;descricao;setor\nP1;Picanha;Açougue\nP2;Arroz\nINVALIDA\n"), 0644))

	out, err := runCLI(t, cfg, append(admin, "import", csvPath)...)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 products (1 without sector, 1 lines skipped)\n", out)

	out, err = runCLI(t, cfg, append(admin, "product", "pending")...)
	require.NoError(t, err)
	assert.Contains(t, out, "P2")

	_, err = runCLI(t, cfg, append(admin, "product", "assign", "Mercearia")...)
	require.NoError(t, err)

	reportPath := filepath.Join(t.TempDir(), "produtos.csv")
	_, err = runCLI(t, cfg, append(admin, "export", "products", "--sector", "Mercearia", "-o", reportPath)...)
	require.NoError(t, err)
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "Codigo;Descricao;Setor\nP2;Arroz;Mercearia\n", string(data))
}

func TestParseQuantity(t *testing.T) {
	v, err := parseQuantity(" 1,5 ")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, err = parseQuantity("abc")
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
}
