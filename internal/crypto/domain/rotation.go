package domain

import "time"

// RotationEvent records a completed master key rotation for audit purposes.
// Events are bookkeeping only: they carry identifiers, never key material.
type RotationEvent struct {
	// UserID is the owner scope whose key was rotated.
	UserID string `json:"userId"`
	// OldKeyID is the key that was deprecated by the rotation.
	OldKeyID string `json:"oldKeyId"`
	// NewKeyID is the replacement active key.
	NewKeyID string `json:"newKeyId"`
	// RotatedAt is the rotation time in UTC.
	RotatedAt time.Time `json:"rotatedAt"`
}
