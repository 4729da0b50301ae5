// Package http provides HTTP handlers for envelope encryption and decryption operations.
package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	"github.com/fitvault/fitvault/internal/envelope/http/dto"
	envelopeUseCase "github.com/fitvault/fitvault/internal/envelope/usecase"
	"github.com/fitvault/fitvault/internal/httputil"
	customValidation "github.com/fitvault/fitvault/internal/validation"
)

// EnvelopeHandler handles HTTP requests for envelope encryption operations.
// Every operation is bound to the caller-supplied user identity; the use case
// rejects cross-user key usage before touching ciphertext.
type EnvelopeHandler struct {
	envelopeUseCase envelopeUseCase.EnvelopeUseCase // Business logic for envelope encryption and decryption
	logger          *slog.Logger                    // Structured logger for request handling and error reporting
}

// NewEnvelopeHandler creates a new envelope handler with required dependencies.
func NewEnvelopeHandler(
	envelopeUseCase envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// EncryptHandler encrypts an opaque payload for a user.
// POST /v1/envelopes/encrypt - Returns 201 Created with the envelope JSON.
// When key_id is omitted the user's active key is selected, falling back to
// the default key for users without one.
func (h *EnvelopeHandler) EncryptHandler(c *gin.Context) {
	var req dto.EncryptRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Decode base64 plaintext
	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	envelope, err := h.envelopeUseCase.EncryptForUser(c.Request.Context(), plaintext, req.UserID, req.KeyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// The envelope is the wire format; return it as the response body.
	c.JSON(http.StatusCreated, envelope)
}

// DecryptHandler opens an envelope on behalf of its owner.
// POST /v1/envelopes/decrypt - Returns 200 OK with base64 plaintext.
// SECURITY: Plaintext is zeroed after the response is written.
func (h *EnvelopeHandler) DecryptHandler(c *gin.Context) {
	var req dto.DecryptRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Call use case
	plaintext, err := h.envelopeUseCase.DecryptForUser(c.Request.Context(), req.Envelope, req.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// SECURITY: Zero plaintext after mapping to response
	defer cryptoDomain.Zero(plaintext)

	// Return response with base64-encoded plaintext
	response := dto.MapDecryptResponse(plaintext)
	c.JSON(http.StatusOK, response)
}

// EncryptSessionHandler sanitizes and encrypts a workout session document.
// POST /v1/envelopes/sessions/encrypt - Returns 201 Created with the envelope JSON.
// Free-text fields are stripped and identifiers pseudonymized before encryption.
func (h *EnvelopeHandler) EncryptSessionHandler(c *gin.Context) {
	var req dto.SessionEncryptRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Call use case
	envelope, err := h.envelopeUseCase.EncryptSessionData(c.Request.Context(), req.Session, req.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, envelope)
}

// EncryptPoseHandler sanitizes and encrypts a pose estimation frame.
// POST /v1/envelopes/poses/encrypt - Returns 201 Created with the envelope JSON.
// Facial landmarks are dropped and timestamps coarsened before encryption.
func (h *EnvelopeHandler) EncryptPoseHandler(c *gin.Context) {
	var req dto.PoseEncryptRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Call use case
	envelope, err := h.envelopeUseCase.EncryptPoseData(c.Request.Context(), req.Frame, req.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, envelope)
}
