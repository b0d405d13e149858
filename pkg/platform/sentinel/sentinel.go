package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Session stores and other
// infrastructure layers return these (optionally wrapped) so adapters can
// decide how to react without knowing which backend is in use.
//
//   - ErrNotFound: no record exists for the key
//   - ErrExpired: a token or session is past its validity window
//   - ErrInvalidState: the record exists but is incomplete or inconsistent
//   - ErrUnavailable: the backing service is temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
