package domain

import (
	"github.com/fitvault/fitvault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All keys (master keys and DEKs) must be exactly 32 bytes (256 bits)
	// for both AES-256-GCM and ChaCha20-Poly1305.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrAuthenticationFailure indicates a decryption or tag verification failure.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext, nonce, or tag has been tampered with
	//   - Associated data does not match the value bound at encryption time
	//
	// For security reasons, the specific cause is never disclosed: the same
	// opaque error covers every failure mode so the API cannot be used as a
	// decryption oracle.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrAuthenticationFailure = errors.Wrap(errors.ErrInvalidInput, "authentication failure")

	// ErrKeyNotFound indicates the referenced master key does not exist.
	//
	// Retired keys report this same error: once a key leaves the registry's
	// resolvable set, lookups fail closed with no hint that the key ever existed.
	//
	// HTTP Status: 404 Not Found
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrDuplicateKeyID indicates a master key with the same identifier is
	// already registered. Key identifiers are immutable and never reused,
	// including identifiers of retired keys.
	//
	// HTTP Status: 409 Conflict
	ErrDuplicateKeyID = errors.Wrap(errors.ErrConflict, "duplicate key id")

	// ErrKeyStoreUnavailable indicates the key registry could not be reached
	// in time. This is the only retryable error in the key hierarchy: callers
	// back off and retry a bounded number of times.
	//
	// HTTP Status: 503 Service Unavailable
	ErrKeyStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "key store unavailable")

	// ErrInvalidKeyState indicates a lifecycle transition that the one-way
	// state machine forbids, such as retiring an active key or deprecating a
	// retired one.
	//
	// HTTP Status: 409 Conflict
	ErrInvalidKeyState = errors.Wrap(errors.ErrConflict, "invalid key state transition")

	// ErrKeyNotEligible indicates the selected key exists but cannot serve the
	// requested operation, e.g. encrypting with a deprecated key.
	//
	// HTTP Status: 409 Conflict
	ErrKeyNotEligible = errors.Wrap(errors.ErrConflict, "key not eligible for operation")

	// ErrIdentityMismatch indicates the caller's identity does not match the
	// identity that owns the key or envelope. The check happens before any
	// cryptographic work.
	//
	// HTTP Status: 403 Forbidden
	ErrIdentityMismatch = errors.Wrap(errors.ErrForbidden, "identity mismatch")
)
