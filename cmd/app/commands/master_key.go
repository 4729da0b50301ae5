package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	cryptoService "github.com/fitvault/fitvault/internal/crypto/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte default
// master key. Key material is zeroed from memory after encoding.
// If keyID is empty, generates a default ID in format "default-YYYY-MM-DD".
//
// When kmsProvider and kmsKeyURI are set, the key is encrypted with the KMS
// before output and the service unwraps it at startup. Without KMS the raw
// base64 key is emitted, which is acceptable for development only.
//
// Output format:
//   - DEFAULT_MASTER_KEY="<keyID>:<base64 key or KMS ciphertext>"
//   - KMS_PROVIDER="<provider>" and KMS_KEY_URI="<uri>" (KMS mode only)
//
// Security: Never use the localsecrets provider in production. Use cloud KMS
// providers (gcpkms, awskms, azurekeyvault, hashivault).
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	// KMS flags travel together
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri are required together\n\nFor local development, use:\n  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use cloud KMS providers:\n  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("default-%s", time.Now().Format("2006-01-02"))
	}

	// Generate a cryptographically secure 32-byte master key
	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	output := masterKey

	if kmsProvider != "" {
		_, _ = fmt.Fprintln(writer, "# KMS Mode: Encrypting master key with KMS")
		_, _ = fmt.Fprintf(writer, "# KMS Provider: %s\n", kmsProvider)
		_, _ = fmt.Fprintln(writer)

		keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		ciphertext, err := keeper.Encrypt(ctx, masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
		}
		output = ciphertext
	}

	encodedKey := base64.StdEncoding.EncodeToString(output)

	// Print configuration
	_, _ = fmt.Fprintln(writer, "# Default Master Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if kmsProvider != "" {
		_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	} else {
		_, _ = fmt.Fprintln(writer, "# WARNING: raw key mode, the key material below is NOT protected by a KMS")
	}
	_, _ = fmt.Fprintf(writer, "DEFAULT_MASTER_KEY=\"%s:%s\"\n", keyID, encodedKey)

	return nil
}
