package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStoreTokenKeychainFirst(t *testing.T) {
	keyring.MockInit()
	t.Setenv(TokenEnv, "from-env")

	require.NoError(t, SetStoreToken("content-store", "from-keychain"))
	tok, err := GetStoreToken("content-store")
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", tok)

	require.NoError(t, DeleteStoreToken("content-store"))
	tok, err = GetStoreToken("content-store")
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
}

func TestStoreTokenMissing(t *testing.T) {
	keyring.MockInit()
	t.Setenv(TokenEnv, "")

	_, err := GetStoreToken("content-store")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSetStoreTokenRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetStoreToken("", "x"))
	assert.Error(t, SetStoreToken("acct", "  "))
	assert.Error(t, DeleteStoreToken(""))
}
