package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Action names what was audited.
type Action string

const (
	ActionNameVerified Action = "name_verified"
)

// Event is emitted once per verification request. Keep it transport-agnostic
// so sinks can fan out. Raw account numbers and names never leave the
// process: only their hashes do.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	RequestID string    `json:"request_id,omitempty"`

	// AccountHash is a SHA-256 of the verified account number, for
	// correlation without storing it.
	AccountHash string `json:"account_hash"`
	BankHint    string `json:"bank_hint"`

	Verdict    string        `json:"verdict"`
	SourceBank string        `json:"source_bank,omitempty"`
	Attempted  []string      `json:"attempted,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// HashAccount returns the hex SHA-256 of an account number.
func HashAccount(accountNumber string) string {
	sum := sha256.Sum256([]byte(accountNumber))
	return hex.EncodeToString(sum[:])
}
