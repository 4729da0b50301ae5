// Package http provides HTTP handlers for master key lifecycle operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitvault/fitvault/internal/crypto/http/dto"
	"github.com/fitvault/fitvault/internal/crypto/usecase"
	"github.com/fitvault/fitvault/internal/httputil"
	customValidation "github.com/fitvault/fitvault/internal/validation"
)

// KeyHandler handles HTTP requests for master key lifecycle operations.
// All responses carry key metadata only; key material never crosses the API.
type KeyHandler struct {
	lifecycleUseCase usecase.LifecycleUseCase
	logger           *slog.Logger
}

// NewKeyHandler creates a new key handler with required dependencies.
func NewKeyHandler(lifecycleUseCase usecase.LifecycleUseCase, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{
		lifecycleUseCase: lifecycleUseCase,
		logger:           logger,
	}
}

// IssueHandler issues a fresh active master key for a user.
// POST /v1/keys - Returns 201 Created with key metadata.
// A user with an active key gets 409 Conflict; rotation is the supported path.
func (h *KeyHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueKeyRequest

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
	key, err := h.lifecycleUseCase.IssueUserKey(c.Request.Context(), req.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	response := dto.MapMasterKeyToResponse(key)
	c.JSON(http.StatusCreated, response)
}

// RotateHandler replaces a user's master key with a fresh one.
// POST /v1/keys/rotate - Returns 200 OK with the new key's metadata.
// The old key is deprecated and keeps decrypting existing envelopes.
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateKeyRequest

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
	key, err := h.lifecycleUseCase.RotateUserKey(c.Request.Context(), req.UserID, req.OldKeyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	response := dto.MapMasterKeyToResponse(key)
	c.JSON(http.StatusOK, response)
}

// RetireHandler permanently disables a deprecated master key.
// POST /v1/keys/:key_id/retire - Returns 204 No Content.
// Active keys are rejected with 409 Conflict; rotate first, then retire.
func (h *KeyHandler) RetireHandler(c *gin.Context) {
	// Extract and validate key ID from URL parameter
	keyID := c.Param("key_id")
	if keyID == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("key id cannot be empty"), h.logger)
		return
	}

	// Call use case
	if err := h.lifecycleUseCase.RetireKey(c.Request.Context(), keyID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return 204 No Content with empty body
	c.Data(http.StatusNoContent, "application/json", nil)
}

// RotationEventsHandler lists the rotation audit trail for a user, oldest first.
// GET /v1/keys/rotations?user_id=<id>&offset=0&limit=50 - Returns 200 OK.
// The trail lives in process memory, so the pagination window is applied here.
func (h *KeyHandler) RotationEventsHandler(c *gin.Context) {
	// Extract and validate user ID from query parameter
	userID := c.Query("user_id")
	if userID == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("user_id query parameter is required"), h.logger)
		return
	}

	// Parse pagination parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	events, err := h.lifecycleUseCase.RotationEvents(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Apply pagination window
	if offset > len(events) {
		offset = len(events)
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	events = events[offset:end]

	// Return response
	response := dto.MapRotationEventsToListResponse(events)
	c.JSON(http.StatusOK, response)
}
