package services

import (
	"path/filepath"
	"testing"

	"EstoqueApp/app/config"
	"EstoqueApp/app/database"
	"EstoqueApp/app/models"
	"EstoqueApp/app/security"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type snapshot struct {
	Products  []models.Product
	Inventory []models.InventoryItem
	History   []models.InventoryMovement
	Sectors   []string
	Users     []models.User
	Pending   []models.Product
}

func takeSnapshot(s *InventoryService) snapshot {
	return snapshot{
		Products:  s.Products(),
		Inventory: s.Inventory(),
		History:   s.History(),
		Sectors:   s.Sectors(),
		Users:     s.Users(),
		Pending:   s.PendingImported(),
	}
}

func populate(t *testing.T, s *InventoryService) {
	t.Helper()
	admin := adminSession(t, s)
	require.NoError(t, s.UpsertProduct("P1", "Picanha", "Açougue"))
	require.NoError(t, s.UpsertProduct("P2", "Alface", "Hortifruti"))
	require.NoError(t, s.AddSector("Padaria"))
	require.NoError(t, s.UpdateInventory("P1", "", "", 2.5))
	require.NoError(t, s.UpdateInventory("P1", "", "", -0.5))
	require.NoError(t, s.UpdateInventory("X1", "Avulso", "Outros", 1))
	_, err := s.ImportProductsFromCSV("P3;Sem setor")
	require.NoError(t, err)
	require.NoError(t, s.AddUser(admin, "maria", "1234", models.Permissions{CanEditInventory: true}))
}

func TestRoundTrip_MemoryStore(t *testing.T) {
	kv := newMemKV()
	s := newTestService(t, kv)
	populate(t, s)

	reloaded := newTestService(t, kv)
	if diff := cmp.Diff(takeSnapshot(s), takeSnapshot(reloaded)); diff != "" {
		t.Errorf("reloaded state mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_SQLiteStore(t *testing.T) {
	conn, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "estoque.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	kv := database.NewGormKVStore(conn)
	s, err := NewInventoryService(kv, NewNopLoggerService(), testOptions())
	require.NoError(t, err)
	populate(t, s)

	reloaded, err := NewInventoryService(kv, NewNopLoggerService(), testOptions())
	require.NoError(t, err)
	if diff := cmp.Diff(takeSnapshot(s), takeSnapshot(reloaded)); diff != "" {
		t.Errorf("reloaded state mismatch (-want +got):\n%s", diff)
	}

	keys, err := kv.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{KeyHistory, KeyInventory, KeyPendingImported, KeyProducts, KeySectors, KeyUsers},
		keys)
}

func TestLoad_CorruptCollections(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyProducts] = "{not json"
	kv.values[KeyInventory] = `[{"codigo":"P1","descricao":"Arroz","setor":"Outros","total":2}]`
	kv.values[KeySectors] = `"Outros"`

	s := newTestService(t, kv)

	assert.Empty(t, s.Products())
	assert.Len(t, s.Inventory(), 1)
	// A present but unreadable sector list is not reseeded
	assert.Empty(t, s.Sectors())
	assert.Len(t, s.Users(), 1)
}

func TestLoad_EmptyStringsAreEmptyCollections(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyProducts] = ""
	kv.values[KeySectors] = "[]"

	s := newTestService(t, kv)
	assert.Empty(t, s.Products())
	assert.Empty(t, s.Sectors())
}

func TestLoad_MigratesLegacyUsers(t *testing.T) {
	kv := newMemKV()
	kv.values[KeySectors] = `["Outros"]`
	kv.values[KeyUsers] = `[
		{"username":"maria","password":"1234","canEditInventory":true},
		{"username":"MARIA","password":"dup"},
		{"username":"admin","password":"","isAdmin":true,"canEditProducts":false},
		{"username":"","password":"x"}
	]`

	s := newTestService(t, kv)
	users := s.Users()
	require.Len(t, users, 2)

	for _, u := range users {
		assert.True(t, security.IsHash(u.PasswordHash), u.Username)
	}
	maria, err := s.Authenticate("maria", "1234")
	require.NoError(t, err)
	assert.True(t, maria.User.CanEditInventory)
	assert.False(t, maria.User.IsAdmin)

	admin := adminSession(t, s)
	assert.Equal(t, models.AllPermissions(), admin.User.Permissions)
	assert.NotContains(t, kv.values[KeyUsers], `"1234"`)
}

func TestLoad_OnlyAdminNamedAdmin(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyUsers] = `[{"username":"joao","password":"1234","isAdmin":true}]`

	s := newTestService(t, kv)
	users := s.Users()
	require.Len(t, users, 2)
	assert.Equal(t, models.AdminUsername, users[0].Username)
	assert.False(t, users[1].IsAdmin)

	joao, err := s.Authenticate("joao", "1234")
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteUser(joao, "admin"), ErrPermissionDenied)
}

func TestServiceLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestService(t, newMemKV())
	populate(t, s)
	require.NoError(t, s.ClearProducts())
}
