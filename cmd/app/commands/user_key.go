package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/fitvault/fitvault/internal/crypto/http/dto"
	cryptoUseCase "github.com/fitvault/fitvault/internal/crypto/usecase"
)

// RunIssueUserKey issues a fresh master key for a user and writes its
// metadata as indented JSON. Key material never reaches the output; the
// registry keeps the only copy.
//
// The registry is process-local, so keys issued here serve library and
// demo workflows within one process. Long-lived keys belong to the server.
func RunIssueUserKey(
	ctx context.Context,
	lifecycleUseCase cryptoUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	logger.Info("issuing user key", slog.String("user_id", userID))

	key, err := lifecycleUseCase.IssueUserKey(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to issue user key: %w", err)
	}

	return printKeyMetadata(writer, dto.MapMasterKeyToResponse(key))
}

// RunRotateUserKey replaces a user's master key and writes the new key's
// metadata as indented JSON. The old key is deprecated, not destroyed, so
// envelopes sealed under it stay readable until it is retired.
func RunRotateUserKey(
	ctx context.Context,
	lifecycleUseCase cryptoUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID, oldKeyID string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}
	if oldKeyID == "" {
		return fmt.Errorf("--old-key-id is required")
	}

	logger.Info("rotating user key",
		slog.String("user_id", userID),
		slog.String("old_key_id", oldKeyID),
	)

	key, err := lifecycleUseCase.RotateUserKey(ctx, userID, oldKeyID)
	if err != nil {
		return fmt.Errorf("failed to rotate user key: %w", err)
	}

	return printKeyMetadata(writer, dto.MapMasterKeyToResponse(key))
}

// RunRetireKey permanently disables a deprecated master key and confirms
// the new state as JSON. Active keys are rejected; rotate first.
func RunRetireKey(
	ctx context.Context,
	lifecycleUseCase cryptoUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyID string,
) error {
	if keyID == "" {
		return fmt.Errorf("--key-id is required")
	}

	logger.Info("retiring key", slog.String("key_id", keyID))

	if err := lifecycleUseCase.RetireKey(ctx, keyID); err != nil {
		return fmt.Errorf("failed to retire key: %w", err)
	}

	result := map[string]string{
		"key_id": keyID,
		"state":  "retired",
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(encoded))
	return nil
}

func printKeyMetadata(writer io.Writer, response dto.KeyResponse) error {
	encoded, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key metadata: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(encoded))
	return nil
}
