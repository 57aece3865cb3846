package domain

import "time"

// TokenPurpose says what a credential token is allowed to gate.
type TokenPurpose string

const (
	// TokenPurposeReset gates a password reset (delivered by email link).
	TokenPurposeReset TokenPurpose = "reset"
	// TokenPurposeRefresh gates session renewal (delivered as a cookie).
	TokenPurposeRefresh TokenPurpose = "refresh"
)

// CredentialToken is the stored half of an opaque credential: the record id
// plus a SHA-256 fingerprint of the secret the client holds. The raw secret
// is never persisted.
//
// A token is consumable iff Used is false, the expiry has not passed, and
// the presented secret fingerprints to SecretHash. Used only ever moves
// from false to true; a used token stays used even if presented before its
// expiry. Rows are not garbage collected, expiry is enforced at validation
// time only.
type CredentialToken struct {
	ID         string
	UserID     string
	Purpose    TokenPurpose
	SecretHash string // base64url SHA-256 of the opaque secret
	ExpiresAt  time.Time
	Used       bool
	CreatedAt  time.Time
}
