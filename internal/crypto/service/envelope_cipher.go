package service

import (
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// EnvelopeCipherService implements the EnvelopeCipher interface for two-tier
// envelope encryption.
//
// Each payload is encrypted with a fresh single-use Data Encryption Key (DEK),
// and the DEK is wrapped under a long-lived master key (KEK). Only the wrapped
// DEK ever leaves this process; the plaintext DEK exists transiently and the
// caller is responsible for zeroing it after use.
//
// The service is stateless. It uses AEADManager to build cipher instances,
// which keeps algorithm selection in one place and makes the wrap and payload
// paths trivially testable with a fake manager.
type EnvelopeCipherService struct {
	aeadManager AEADManager
}

// NewEnvelopeCipher creates a new EnvelopeCipherService instance with the
// provided AEADManager.
func NewEnvelopeCipher(aeadManager AEADManager) *EnvelopeCipherService {
	return &EnvelopeCipherService{
		aeadManager: aeadManager,
	}
}

// GenerateDEK returns a fresh random 32-byte (256-bit) Data Encryption Key.
//
// A new DEK is generated for every encryption operation and never reused
// across payloads. The caller must zero the returned slice once the payload
// operation completes.
func (ec *EnvelopeCipherService) GenerateDEK() ([]byte, error) {
	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("failed to generate DEK: %w", err)
	}
	return dek, nil
}

// WrapKey encrypts a DEK under the given master key.
//
// The master key must be in a state that permits encryption; wrapping under a
// deprecated or retired key returns ErrKeyNotEligible. The AAD binds the
// wrapped DEK to the owning identity, so an envelope replayed against another
// user's key fails authentication at unwrap time.
//
// Returns the wrapped DEK, the nonce consumed by the wrap operation, and the
// 16-byte authentication tag as separate values.
func (ec *EnvelopeCipherService) WrapKey(
	dek []byte,
	kek *cryptoDomain.MasterKey,
	aad []byte,
) (wrapped, nonce, tag []byte, err error) {
	if !kek.CanEncrypt() {
		return nil, nil, nil, cryptoDomain.ErrKeyNotEligible
	}

	aead, err := ec.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed, nonce, err := aead.Encrypt(dek, aad)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to wrap DEK: %w", err)
	}

	wrapped, tag = splitTag(sealed)
	return wrapped, nonce, tag, nil
}

// UnwrapKey recovers a plaintext DEK from its wrapped form.
//
// Deprecated master keys remain eligible so envelopes sealed before a rotation
// stay readable; a retired key returns ErrKeyNotEligible. Every cryptographic
// failure collapses into ErrAuthenticationFailure regardless of cause, so the
// caller cannot distinguish a bad tag from tampered ciphertext or mismatched
// AAD.
//
// The returned DEK must be zeroed by the caller after use.
func (ec *EnvelopeCipherService) UnwrapKey(
	wrapped, nonce, tag []byte,
	kek *cryptoDomain.MasterKey,
	aad []byte,
) ([]byte, error) {
	if !kek.CanDecrypt() {
		return nil, cryptoDomain.ErrKeyNotEligible
	}

	aead, err := ec.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, err
	}

	dek, err := aead.Decrypt(joinTag(wrapped, tag), nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailure
	}

	return dek, nil
}

// EncryptPayload encrypts plaintext with the provided DEK.
//
// Returns the ciphertext, the nonce consumed by the operation, and the 16-byte
// authentication tag as separate values so the envelope can carry each field
// explicitly.
func (ec *EnvelopeCipherService) EncryptPayload(
	plaintext, dek []byte,
	alg cryptoDomain.Algorithm,
	aad []byte,
) (ciphertext, nonce, tag []byte, err error) {
	aead, err := ec.aeadManager.CreateCipher(dek, alg)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	ciphertext, tag = splitTag(sealed)
	return ciphertext, nonce, tag, nil
}

// DecryptPayload decrypts ciphertext with the provided DEK.
//
// The tag is verified before any plaintext is returned. As with UnwrapKey,
// every failure collapses into the opaque ErrAuthenticationFailure.
func (ec *EnvelopeCipherService) DecryptPayload(
	ciphertext, nonce, tag, dek []byte,
	alg cryptoDomain.Algorithm,
	aad []byte,
) ([]byte, error) {
	aead, err := ec.aeadManager.CreateCipher(dek, alg)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(joinTag(ciphertext, tag), nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailure
	}

	return plaintext, nil
}

// splitTag separates the trailing 16-byte tag that Seal appends to its
// output. Seal output is always at least TagSize bytes, even for an empty
// plaintext.
func splitTag(sealed []byte) (ciphertext, tag []byte) {
	cut := len(sealed) - cryptoDomain.TagSize
	return sealed[:cut], sealed[cut:]
}

// joinTag rebuilds the Seal output layout expected by Open.
func joinTag(ciphertext, tag []byte) []byte {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	return append(sealed, tag...)
}
