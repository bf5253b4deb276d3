// Package common holds the sentinel errors shared by the store, the ledger and the gate.
// Callers match them with errors.Is.
package common

import "errors"

var (
	// store level errors
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrBadRequest       = errors.New("bad request")
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreAuth always comes wrapped together with ErrStoreUnavailable
	ErrStoreAuth = errors.New("store rejected credentials")

	// ledger errors
	ErrUnauthorizedIssuer = errors.New("issuer is not authorized")
	ErrAlreadyRedeemed    = errors.New("invitation is already redeemed")

	// gate errors
	ErrInvalidCode    = errors.New("invalid invitation code")
	ErrRedemptionRace = errors.New("invitation was redeemed by someone else")
	ErrEmptyPrincipal = errors.New("empty principal id")
)
