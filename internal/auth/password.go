package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// LocalAccount is a development sign-in for the local provider.
type LocalAccount struct {
	UID          string
	Email        string
	PasswordHash string
}

// ParseLocalAccounts reads a comma separated list of uid|email|bcrypt-hash entries.
func ParseLocalAccounts(raw string) ([]LocalAccount, error) {
	var accounts []LocalAccount
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid local account entry %q", entry)
		}
		accounts = append(accounts, LocalAccount{
			UID:          parts[0],
			Email:        strings.ToLower(parts[1]),
			PasswordHash: parts[2],
		})
	}
	return accounts, nil
}
