// Package domain defines the core cryptographic domain models for envelope encryption.
//
// It implements a two-tier key hierarchy: master key (KEK) → DEK → data.
// Every protected payload is encrypted with a fresh single-use Data Encryption
// Key, and the DEK is wrapped with the owning user's master key. Master keys
// move through a one-way lifecycle (active → deprecated → retired) driven by
// rotation. Supports AESGCM and ChaCha20 algorithms with 256-bit keys.
package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of encrypted data. AEAD prevents both
// unauthorized reading and tampering with encrypted data.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on mobile devices or systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// AES-GCM (Advanced Encryption Standard in Galois/Counter Mode) combines
	// AES encryption with GMAC authentication. It uses a 256-bit key and
	// provides excellent performance on hardware with AES-NI acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// ChaCha20-Poly1305 combines the ChaCha20 stream cipher with the Poly1305 MAC
	// for authentication. It's designed for high performance on platforms without
	// AES hardware acceleration and is resistant to timing attacks.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// AEAD parameter sizes shared by both supported algorithms.
const (
	// KeySize is the required key length in bytes (256 bits).
	KeySize = 32

	// NonceSize is the nonce length in bytes (96 bits).
	NonceSize = 12

	// TagSize is the authentication tag length in bytes (128 bits).
	TagSize = 16
)

// KeyState represents the lifecycle state of a master key.
//
// The state machine is strictly one-way:
//
//	active → deprecated → retired
//
// An active key may encrypt and decrypt. A deprecated key may only decrypt,
// keeping envelopes produced before a rotation readable during migration.
// A retired key is unresolvable: lookups fail closed as if the key never
// existed, and its material has been zeroed.
type KeyState string

const (
	// KeyStateActive marks the single key per owner scope used for new encryptions.
	KeyStateActive KeyState = "active"

	// KeyStateDeprecated marks a rotated-out key that may still decrypt.
	KeyStateDeprecated KeyState = "deprecated"

	// KeyStateRetired marks a key that is permanently unavailable.
	KeyStateRetired KeyState = "retired"
)

// DefaultKeyScope is the owner scope of the system-wide default master key,
// used when a caller has no per-user key issued.
const DefaultKeyScope = "default"
