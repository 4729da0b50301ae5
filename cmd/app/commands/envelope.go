package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
	envelopeUseCase "github.com/fitvault/fitvault/internal/envelope/usecase"
)

// RunEncrypt encrypts plaintext for a user and writes the resulting envelope
// as indented JSON.
//
// The CLI process starts with a key registry holding only the default master
// key, so envelopes produced here decrypt again only while
// DEFAULT_MASTER_KEY stays unchanged.
func RunEncrypt(
	ctx context.Context,
	envelopeUC envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID, plaintext string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	env, err := envelopeUC.EncryptForUser(ctx, []byte(plaintext), userID, "")
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	encoded, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(encoded))
	return nil
}

// RunDecrypt decrypts an envelope for a user and writes the recovered
// plaintext. The envelope JSON is read from reader when the flag is empty,
// so envelopes can be piped in.
func RunDecrypt(
	ctx context.Context,
	envelopeUC envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	reader io.Reader,
	writer io.Writer,
	userID, envelopeJSON string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	if envelopeJSON == "" {
		raw, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read envelope from stdin: %w", err)
		}
		envelopeJSON = string(raw)
	}

	var env envelopeDomain.Envelope
	if err := json.Unmarshal([]byte(envelopeJSON), &env); err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}

	plaintext, err := envelopeUC.DecryptForUser(ctx, &env, userID)
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}
	defer cryptoDomain.Zero(plaintext)

	_, _ = fmt.Fprintln(writer, string(plaintext))
	return nil
}
