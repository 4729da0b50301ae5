// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
	customValidation "github.com/fitvault/fitvault/internal/validation"
)

// EncryptRequest contains the parameters for encrypting an opaque payload.
type EncryptRequest struct {
	UserID    string `json:"user_id"`
	Plaintext string `json:"plaintext"`        // Base64-encoded plaintext
	KeyID     string `json:"key_id,omitempty"` // Optional explicit key; active key is selected when empty
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		// KeyID is optional; the identifier rule skips empty values.
		validation.Field(&r.KeyID,
			customValidation.Identifier,
		),
	)
}

// DecryptRequest contains the parameters for opening an envelope.
// The envelope field carries the exact JSON produced by the encrypt endpoints.
type DecryptRequest struct {
	UserID   string                   `json:"user_id"`
	Envelope *envelopeDomain.Envelope `json:"envelope"`
}

// Validate checks if the decrypt request is valid.
// Envelope structure (field sizes, required fields) is verified by the use
// case so that malformed and tampered envelopes share one failure path.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
		validation.Field(&r.Envelope,
			validation.NotNil,
		),
	)
}

// SessionEncryptRequest contains the parameters for sanitizing and encrypting
// a workout session document.
type SessionEncryptRequest struct {
	UserID  string         `json:"user_id"`
	Session map[string]any `json:"session"`
}

// Validate checks if the session encrypt request is valid.
func (r *SessionEncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
		validation.Field(&r.Session,
			validation.NotNil,
		),
	)
}

// PoseEncryptRequest contains the parameters for sanitizing and encrypting a
// pose estimation frame.
type PoseEncryptRequest struct {
	UserID string         `json:"user_id"`
	Frame  map[string]any `json:"frame"`
}

// Validate checks if the pose encrypt request is valid.
func (r *PoseEncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
		validation.Field(&r.Frame,
			validation.NotNil,
		),
	)
}
