// Package service provides cryptographic services for envelope encryption.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the stateless
// envelope cipher that wraps DEKs and protects payloads, and the KMS custody
// of the default master key.
package service

import (
	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	// The nonce is generated inside the call; the returned value is the exact
	// nonce the cipher consumed, so persisting it always yields a decryptable record.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// EnvelopeCipher defines the stateless primitives of envelope encryption:
// generating single-use DEKs, wrapping them under a master key, and running
// the payload AEAD with explicit nonce and tag handling.
//
// Every operation takes associated data. Callers bind the owning user's
// identity so an envelope presented under a different identity fails
// authentication rather than leaking another user's data.
type EnvelopeCipher interface {
	// GenerateDEK returns fresh random key material for a single envelope.
	// Callers zero the returned slice once the envelope is assembled.
	GenerateDEK() ([]byte, error)

	// WrapKey encrypts a DEK under the master key. Returns the wrapped key,
	// the wrap nonce, and the wrap authentication tag as separate values.
	WrapKey(dek []byte, kek *cryptoDomain.MasterKey, aad []byte) (wrapped, nonce, tag []byte, err error)

	// UnwrapKey recovers a DEK from its wrapped form. Every failure mode
	// returns the opaque ErrAuthenticationFailure.
	UnwrapKey(wrapped, nonce, tag []byte, kek *cryptoDomain.MasterKey, aad []byte) ([]byte, error)

	// EncryptPayload encrypts plaintext with the DEK. Returns ciphertext,
	// nonce, and authentication tag as separate values for the envelope.
	EncryptPayload(plaintext, dek []byte, alg cryptoDomain.Algorithm, aad []byte) (ciphertext, nonce, tag []byte, err error)

	// DecryptPayload reverses EncryptPayload. Every failure mode returns the
	// opaque ErrAuthenticationFailure.
	DecryptPayload(ciphertext, nonce, tag, dek []byte, alg cryptoDomain.Algorithm, aad []byte) ([]byte, error)
}
