package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fitvault/fitvault/internal/config"
	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// LoadDefaultMasterKey builds the default-scope master key from configuration.
//
// DEFAULT_MASTER_KEY carries a single entry in "keyId:base64" form. When
// KMS_KEY_URI is set, the decoded blob is treated as KMS ciphertext and
// unwrapped through the configured keeper before validation; otherwise the
// blob is the raw 32-byte key material.
//
// When DEFAULT_MASTER_KEY is unset entirely, a random ephemeral key is
// generated and a warning is logged. Envelopes sealed under an ephemeral key
// do not survive a restart, which is acceptable only in development.
//
// Decoded key material is zeroed before returning; the returned MasterKey
// holds its own copy.
func LoadDefaultMasterKey(
	ctx context.Context,
	cfg *config.Config,
	kms KMSService,
	logger *slog.Logger,
) (*cryptoDomain.MasterKey, error) {
	if cfg.DefaultMasterKey == "" {
		return ephemeralDefaultKey(cfg, logger)
	}

	id, encoded, found := strings.Cut(cfg.DefaultMasterKey, ":")
	if !found || id == "" || encoded == "" {
		return nil, fmt.Errorf("invalid DEFAULT_MASTER_KEY format, want %q", "keyId:base64")
	}

	material, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_MASTER_KEY base64 for %s: %w", id, err)
	}
	defer cryptoDomain.Zero(material)

	if cfg.KMSKeyURI != "" {
		plaintext, err := unwrapWithKMS(ctx, kms, cfg.KMSKeyURI, material, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap master key %s with KMS: %w", id, err)
		}
		defer cryptoDomain.Zero(plaintext)
		material = plaintext
	}

	masterKey, err := cryptoDomain.NewMasterKey(
		id,
		material,
		cryptoDomain.AESGCM,
		cryptoDomain.DefaultKeyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid master key %s: %w", id, err)
	}

	logger.Info("loaded default master key",
		slog.String("key_id", id),
		slog.Bool("kms_wrapped", cfg.KMSKeyURI != ""),
	)
	return masterKey, nil
}

// ephemeralDefaultKey generates a throwaway default key for development runs.
func ephemeralDefaultKey(cfg *config.Config, logger *slog.Logger) (*cryptoDomain.MasterKey, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	masterKey, err := cryptoDomain.NewMasterKey(
		cfg.DefaultKeyID,
		key,
		cryptoDomain.AESGCM,
		cryptoDomain.DefaultKeyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ephemeral master key: %w", err)
	}

	logger.Warn(
		"DEFAULT_MASTER_KEY is not set, generated an ephemeral key; envelopes will not survive a restart",
		slog.String("key_id", cfg.DefaultKeyID),
	)
	return masterKey, nil
}

// unwrapWithKMS opens the configured keeper and decrypts the wrapped master
// key. The keeper is closed before returning.
func unwrapWithKMS(
	ctx context.Context,
	kms KMSService,
	keyURI string,
	ciphertext []byte,
	logger *slog.Logger,
) ([]byte, error) {
	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
