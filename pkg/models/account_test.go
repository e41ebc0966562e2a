package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountValidate(t *testing.T) {
	account := Account{
		PublicAddress: "0x1234567890abcdef1234567890abcdef12345678",
		PrivateKey:    "secret",
	}
	assert.NoError(t, account.Validate())

	assert.Error(t, Account{PrivateKey: "secret"}.Validate())
	assert.Error(t, Account{PublicAddress: account.PublicAddress}.Validate())
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Error(t, ValidateAddress("1234567890abcdef1234567890abcdef12345678"))
	assert.Error(t, ValidateAddress("0x1234"))
	assert.Error(t, ValidateAddress(""))
}

func TestAccountFromEnv(t *testing.T) {
	t.Setenv("HYPERLIQUID_PUBLIC_ADDRESS", "0x1234567890abcdef1234567890abcdef12345678")
	t.Setenv("HYPERLIQUID_PRIVATE_KEY", "  secret  ")

	account, err := AccountFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", account.PublicAddress)
	assert.Equal(t, "secret", account.PrivateKey)
}

func TestAccountFromEnv_Missing(t *testing.T) {
	t.Setenv("HYPERLIQUID_PUBLIC_ADDRESS", "")
	t.Setenv("HYPERLIQUID_PRIVATE_KEY", "")

	_, err := AccountFromEnv()
	assert.Error(t, err)
}
