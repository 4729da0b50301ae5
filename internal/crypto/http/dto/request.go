// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/fitvault/fitvault/internal/validation"
)

// IssueKeyRequest contains the parameters for issuing a new user master key.
type IssueKeyRequest struct {
	UserID string `json:"user_id"`
}

// Validate checks if the issue key request is valid.
func (r *IssueKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
	)
}

// RotateKeyRequest contains the parameters for rotating a user master key.
type RotateKeyRequest struct {
	UserID   string `json:"user_id"`
	OldKeyID string `json:"old_key_id"`
}

// Validate checks if the rotate key request is valid.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
		validation.Field(&r.OldKeyID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Identifier,
		),
	)
}
