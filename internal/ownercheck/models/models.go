// Package models holds the data shapes shared by bank adapters, the
// dispatcher and the HTTP endpoint.
package models

import "time"

// Credential is the immutable login material of one adapter instance.
type Credential struct {
	BankID        string
	Username      string
	Password      string
	AccountNumber string
	// Proxy is an optional "host:port:user:pass" SOCKS5 handle owned by this adapter.
	Proxy string
}

// Cookie is the persisted form of a session cookie.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
	Secure  bool      `json:"secure,omitempty"`
}

// SessionState is the authentication material persisted per account number.
type SessionState struct {
	Username        string    `json:"username"`
	Password        string    `json:"password"`
	AccountNumber   string    `json:"account_number"`
	AuthToken       string    `json:"auth_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenIssuedAt   time.Time `json:"token_issued_at"`
	DeviceID        string    `json:"device_id"`
	IsLoggedIn      bool      `json:"is_logged_in"`
	Cookies         []Cookie  `json:"cookies,omitempty"`
	PendingTransfer []string  `json:"pending_transfer"`
}

// Complete reports whether the record carries enough to skip a fresh login.
func (s *SessionState) Complete() bool {
	return s != nil && s.IsLoggedIn && s.AuthToken != "" && !s.TokenIssuedAt.IsZero()
}

// Age returns how long ago the current token was issued.
func (s *SessionState) Age(now time.Time) time.Duration {
	if s == nil || s.TokenIssuedAt.IsZero() {
		return 0
	}
	return now.Sub(s.TokenIssuedAt)
}

// Clone returns a deep copy safe to hand to a store.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Cookies = append([]Cookie(nil), s.Cookies...)
	out.PendingTransfer = append([]string{}, s.PendingTransfer...)
	return &out
}

// LookupRequest is one verification question. It is shared read-only by the
// goroutines racing on it.
type LookupRequest struct {
	AccountNumber string
	BankHint      string
	ClaimedName   string
}
