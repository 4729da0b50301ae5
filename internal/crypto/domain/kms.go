package domain

import "context"

// KMSKeeper abstracts the external key management service protecting the
// default master key at rest. gocloud.dev's *secrets.Keeper satisfies this
// interface for every supported provider.
type KMSKeeper interface {
	// Encrypt wraps plaintext key material under the KMS-held key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	// Decrypt unwraps KMS-protected ciphertext back to key material.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	// Close releases any resources held by the keeper.
	Close() error
}
