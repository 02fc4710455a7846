package security

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("1234", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, IsHash(hash))
	assert.True(t, CheckPassword(hash, "1234"))
	assert.False(t, CheckPassword(hash, "12345"))
	assert.False(t, IsHash("1234"))
	assert.False(t, CheckPassword("1234", "1234"), "plaintext is never accepted as a hash")

	_, err = HashPassword("", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	t.Setenv("ESTOQUE_CONFIG_DIR", t.TempDir())

	ciphertext, err := Encrypt("pg-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "pg-secret", ciphertext)

	again, err := Encrypt("pg-secret")
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext, again, "nonce is random")

	plaintext, err := Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "pg-secret", plaintext)

	empty, err := Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Decrypt("not base64!")
	assert.Error(t, err)
}

func TestGenerateKeyIfNotExists_Stable(t *testing.T) {
	t.Setenv("ESTOQUE_CONFIG_DIR", t.TempDir())

	first, err := GenerateKeyIfNotExists()
	require.NoError(t, err)
	second, err := GenerateKeyIfNotExists()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 32)

	path, err := GetKeyPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))
	_, err = GenerateKeyIfNotExists()
	assert.Error(t, err)
}
