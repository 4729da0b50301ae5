package domain

import (
	"github.com/fitvault/fitvault/internal/errors"
)

// Envelope error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for envelope handling failures. Identity mismatches
// reuse crypto/domain.ErrIdentityMismatch so the lifecycle and envelope
// paths surface the same sentinel.
var (
	// ErrMalformedEnvelope indicates the envelope fails structural validation
	// before any cryptographic work: a missing field, a wrong-size nonce or
	// tag, or a wrapped key that does not match the fixed framing.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")
)
