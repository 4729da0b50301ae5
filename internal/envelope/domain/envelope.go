// Package domain defines the envelope wire format for encrypted payloads.
//
// An Envelope is the complete, self-describing unit handed back to callers
// after encryption and presented again for decryption. It carries the
// payload ciphertext, the wrapped data encryption key, and every public
// parameter the AEAD operations need. It never carries key material in the
// clear: the master key stays in the key registry and the DEK only exists
// wrapped.
package domain

import (
	"fmt"
	"time"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// WrappedKeySize is the exact byte length of a wrapped data encryption key:
// the wrap nonce, the encrypted 256-bit DEK, and the wrap authentication tag
// packed as nonce || ciphertext || tag.
const WrappedKeySize = cryptoDomain.NonceSize + cryptoDomain.KeySize + cryptoDomain.TagSize

// Envelope is the JSON wire contract for an encrypted payload.
//
// All []byte fields marshal as standard base64 and CreatedAt marshals as
// RFC 3339, so the serialized form is portable across languages. Nonce and
// AuthTag belong to the payload operation; the wrap operation's nonce and
// tag travel inside WrappedKey (see PackWrapped).
//
// Fields:
//   - Ciphertext: the AEAD-encrypted payload (empty plaintext yields an empty ciphertext)
//   - WrappedKey: the DEK encrypted under the master key, fixed framing of WrappedKeySize bytes
//   - KeyID: identifier of the master key that wrapped the DEK
//   - Nonce: the 96-bit nonce consumed by the payload encryption
//   - AuthTag: the 128-bit tag binding ciphertext and associated data
//   - AssociatedData: the requesting identity, bound but not encrypted, so an
//     envelope cannot be replayed against another identity
//   - CreatedAt: envelope creation time in UTC
//
// Decrypting requires resolving KeyID to a live master key AND supplying the
// same associated data bound at encryption time. Tampering with any field
// invalidates authentication.
type Envelope struct {
	Ciphertext     []byte    `json:"ciphertext"`
	WrappedKey     []byte    `json:"wrappedKey"`
	KeyID          string    `json:"keyId"`
	Nonce          []byte    `json:"nonce"`
	AuthTag        []byte    `json:"authTag"`
	AssociatedData string    `json:"associatedData"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate performs structural checks on the envelope before any
// cryptography runs.
//
// It verifies required fields are present and all fixed-size fields have
// their exact expected lengths. Ciphertext is allowed to be empty because
// encrypting an empty plaintext is legal and produces an empty ciphertext
// with a valid tag.
//
// Returns:
//   - nil if the envelope is structurally sound
//   - ErrMalformedEnvelope describing the first violated constraint
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: envelope is nil", ErrMalformedEnvelope)
	}
	if e.KeyID == "" {
		return fmt.Errorf("%w: key id is required", ErrMalformedEnvelope)
	}
	if e.AssociatedData == "" {
		return fmt.Errorf("%w: associated data is required", ErrMalformedEnvelope)
	}
	if len(e.WrappedKey) != WrappedKeySize {
		return fmt.Errorf(
			"%w: wrapped key must be %d bytes, got %d",
			ErrMalformedEnvelope,
			WrappedKeySize,
			len(e.WrappedKey),
		)
	}
	if len(e.Nonce) != cryptoDomain.NonceSize {
		return fmt.Errorf(
			"%w: nonce must be %d bytes, got %d",
			ErrMalformedEnvelope,
			cryptoDomain.NonceSize,
			len(e.Nonce),
		)
	}
	if len(e.AuthTag) != cryptoDomain.TagSize {
		return fmt.Errorf(
			"%w: auth tag must be %d bytes, got %d",
			ErrMalformedEnvelope,
			cryptoDomain.TagSize,
			len(e.AuthTag),
		)
	}
	return nil
}

// PackWrapped packs the wrap operation's outputs into the single WrappedKey
// field as nonce || ciphertext || tag.
//
// The framing is fixed-size (12, 32 and 16 bytes) so no length prefixes are
// needed. PackWrapped does not validate its inputs; the envelope cipher
// produces them at the correct sizes and Validate rejects anything else on
// the way back in.
func PackWrapped(nonce, ciphertext, tag []byte) []byte {
	packed := make([]byte, 0, len(nonce)+len(ciphertext)+len(tag))
	packed = append(packed, nonce...)
	packed = append(packed, ciphertext...)
	packed = append(packed, tag...)
	return packed
}

// SplitWrapped splits a WrappedKey field back into the wrap operation's
// nonce, ciphertext and tag.
//
// Returns:
//   - The three segments as subslices of the input
//   - ErrMalformedEnvelope if the input is not exactly WrappedKeySize bytes
func SplitWrapped(wrapped []byte) (nonce, ciphertext, tag []byte, err error) {
	if len(wrapped) != WrappedKeySize {
		return nil, nil, nil, fmt.Errorf(
			"%w: wrapped key must be %d bytes, got %d",
			ErrMalformedEnvelope,
			WrappedKeySize,
			len(wrapped),
		)
	}
	nonce = wrapped[:cryptoDomain.NonceSize]
	ciphertext = wrapped[cryptoDomain.NonceSize : cryptoDomain.NonceSize+cryptoDomain.KeySize]
	tag = wrapped[cryptoDomain.NonceSize+cryptoDomain.KeySize:]
	return nonce, ciphertext, tag, nil
}
