package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Account holds the credentials of a Hyperliquid trading identity. A client
// built without an account runs in read-only mode.
type Account struct {
	PublicAddress string
	PrivateKey    string
}

// AccountFromEnv loads credentials from HYPERLIQUID_PUBLIC_ADDRESS and
// HYPERLIQUID_PRIVATE_KEY, reading a .env file first if one exists.
func AccountFromEnv() (Account, error) {
	_ = godotenv.Load()

	account := Account{
		PublicAddress: strings.TrimSpace(os.Getenv("HYPERLIQUID_PUBLIC_ADDRESS")),
		PrivateKey:    strings.TrimSpace(os.Getenv("HYPERLIQUID_PRIVATE_KEY")),
	}
	if err := account.Validate(); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Validate checks the account is complete and the address is well formed.
// The address check is a minimal shape check, not a checksum validation.
func (a Account) Validate() error {
	if a.PublicAddress == "" {
		return fmt.Errorf("public address is required")
	}
	if a.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	return ValidateAddress(a.PublicAddress)
}

// ValidateAddress checks an address starts with "0x" and is 42 characters.
func ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		return fmt.Errorf("invalid address format: %q", address)
	}
	return nil
}
