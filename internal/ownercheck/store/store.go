// Package store persists bank session records keyed by the adapter's own
// account number. Every backend returns sentinel.ErrNotFound for a missing
// record and hands out copies, never shared pointers.
package store

import (
	"fmt"
	"strings"

	"namecheck/internal/ownercheck/providers/session"
)

var (
	_ session.Store = (*InMemoryStore)(nil)
	_ session.Store = (*FileStore)(nil)
	_ session.Store = (*RedisStore)(nil)
	_ session.Store = (*PostgresStore)(nil)
)

// validateKey rejects account numbers that cannot serve as file names or keys.
func validateKey(accountNumber string) error {
	if accountNumber == "" {
		return fmt.Errorf("account number is required")
	}
	if strings.ContainsAny(accountNumber, `/\:.`) || strings.TrimSpace(accountNumber) != accountNumber {
		return fmt.Errorf("invalid account number %q", accountNumber)
	}
	return nil
}
