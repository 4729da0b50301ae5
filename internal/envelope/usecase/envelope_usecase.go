package usecase

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fitvault/fitvault/internal/config"
	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
	apperrors "github.com/fitvault/fitvault/internal/errors"
)

// healthProbeIdentity is the synthetic identity used by HealthCheck. It has
// no issued key, so the probe exercises the default scope fallback.
const healthProbeIdentity = "health-check"

// healthProbePayload is the fixed plaintext round-tripped by HealthCheck.
var healthProbePayload = []byte("fitvault-health-probe")

// envelopeUseCase implements the EnvelopeUseCase interface.
//
// Each operation is self-contained: it reads the key registry, allocates
// ephemeral buffers for the DEK and plaintext, and holds no state between
// calls, so the use case is safe for concurrent use by many request
// handlers.
type envelopeUseCase struct {
	keys      KeyResolver
	cipher    EnvelopeCipher
	sanitizer Sanitizer
	cfg       *config.Config
	logger    *slog.Logger
}

// NewEnvelopeUseCase creates an envelope encryption facade from its
// collaborators.
func NewEnvelopeUseCase(
	keys KeyResolver,
	cipher EnvelopeCipher,
	sanitizer Sanitizer,
	cfg *config.Config,
	logger *slog.Logger,
) EnvelopeUseCase {
	return &envelopeUseCase{
		keys:      keys,
		cipher:    cipher,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    logger,
	}
}

// lookupWithRetry runs a key store lookup, retrying with exponential backoff
// while the store reports itself unavailable.
//
// Only crypto/domain.ErrKeyStoreUnavailable is retryable; every other error
// surfaces immediately. The delay doubles after each attempt and context
// cancellation aborts the wait.
func (e *envelopeUseCase) lookupWithRetry(
	ctx context.Context,
	lookup func(context.Context) (*cryptoDomain.MasterKey, error),
) (*cryptoDomain.MasterKey, error) {
	delay := e.cfg.KeyStoreRetryBaseDelay
	for attempt := 0; ; attempt++ {
		key, err := lookup(ctx)
		if err == nil {
			return key, nil
		}
		if !apperrors.Is(err, cryptoDomain.ErrKeyStoreUnavailable) || attempt >= e.cfg.KeyStoreMaxRetries {
			return nil, err
		}

		e.logger.Warn("key store unavailable, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// selectEncryptionKey picks the master key a new envelope is sealed under.
//
// An explicit keyID is resolved and checked: it must be owned by the user or
// by the default scope, and it must still be eligible for encryption. An
// empty keyID selects the user's active key, falling back to the default
// scope key when the user has none issued.
func (e *envelopeUseCase) selectEncryptionKey(
	ctx context.Context,
	userID, keyID string,
) (*cryptoDomain.MasterKey, error) {
	if keyID != "" {
		kek, err := e.lookupWithRetry(ctx, func(ctx context.Context) (*cryptoDomain.MasterKey, error) {
			return e.keys.Resolve(ctx, keyID)
		})
		if err != nil {
			return nil, err
		}
		if kek.OwnerScope != userID && kek.OwnerScope != cryptoDomain.DefaultKeyScope {
			cryptoDomain.Zero(kek.Key)
			return nil, cryptoDomain.ErrIdentityMismatch
		}
		if !kek.CanEncrypt() {
			cryptoDomain.Zero(kek.Key)
			return nil, cryptoDomain.ErrKeyNotEligible
		}
		return kek, nil
	}

	kek, err := e.lookupWithRetry(ctx, func(ctx context.Context) (*cryptoDomain.MasterKey, error) {
		return e.keys.ActiveForScope(ctx, userID)
	})
	if err == nil {
		return kek, nil
	}
	if !apperrors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return nil, err
	}

	return e.lookupWithRetry(ctx, func(ctx context.Context) (*cryptoDomain.MasterKey, error) {
		return e.keys.ActiveForScope(ctx, cryptoDomain.DefaultKeyScope)
	})
}

// EncryptForUser encrypts plaintext for the given user.
//
// The flow is: select KEK, generate a fresh DEK, encrypt the payload under
// the DEK, wrap the DEK under the KEK, zero the DEK, assemble the envelope.
// The user identity is bound as associated data on both AEAD operations.
func (e *envelopeUseCase) EncryptForUser(
	ctx context.Context,
	plaintext []byte,
	userID, keyID string,
) (*envelopeDomain.Envelope, error) {
	if userID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "user id is required")
	}

	kek, err := e.selectEncryptionKey(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek.Key)

	dek, err := e.cipher.GenerateDEK()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	aad := []byte(userID)

	ciphertext, payloadNonce, payloadTag, err := e.cipher.EncryptPayload(plaintext, dek, kek.Algorithm, aad)
	if err != nil {
		return nil, err
	}

	wrapped, wrapNonce, wrapTag, err := e.cipher.WrapKey(dek, kek, aad)
	if err != nil {
		return nil, err
	}

	env := &envelopeDomain.Envelope{
		Ciphertext:     ciphertext,
		WrappedKey:     envelopeDomain.PackWrapped(wrapNonce, wrapped, wrapTag),
		KeyID:          kek.KeyID,
		Nonce:          payloadNonce,
		AuthTag:        payloadTag,
		AssociatedData: userID,
		CreatedAt:      time.Now().UTC(),
	}

	e.logger.Debug("encrypted payload",
		slog.String("user_id", userID),
		slog.String("key_id", kek.KeyID),
		slog.Int("plaintext_bytes", len(plaintext)),
	)
	return env, nil
}

// DecryptForUser authenticates and decrypts an envelope for the given user.
func (e *envelopeUseCase) DecryptForUser(
	ctx context.Context,
	env *envelopeDomain.Envelope,
	userID string,
) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "user id is required")
	}

	// The identity check runs before any cryptographic work. The comparison
	// is constant-time so the envelope cannot be probed byte by byte.
	if subtle.ConstantTimeCompare([]byte(env.AssociatedData), []byte(userID)) != 1 {
		return nil, cryptoDomain.ErrIdentityMismatch
	}

	kek, err := e.lookupWithRetry(ctx, func(ctx context.Context) (*cryptoDomain.MasterKey, error) {
		return e.keys.Resolve(ctx, env.KeyID)
	})
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek.Key)

	wrapNonce, wrappedDek, wrapTag, err := envelopeDomain.SplitWrapped(env.WrappedKey)
	if err != nil {
		return nil, err
	}

	aad := []byte(userID)

	dek, err := e.cipher.UnwrapKey(wrappedDek, wrapNonce, wrapTag, kek, aad)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	plaintext, err := e.cipher.DecryptPayload(env.Ciphertext, env.Nonce, env.AuthTag, dek, kek.Algorithm, aad)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("decrypted payload",
		slog.String("user_id", userID),
		slog.String("key_id", env.KeyID),
	)
	return plaintext, nil
}

// EncryptUserData JSON-serializes a value and encrypts it for the user.
func (e *envelopeUseCase) EncryptUserData(
	ctx context.Context,
	v any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "failed to serialize payload")
	}
	return e.EncryptForUser(ctx, data, userID, "")
}

// DecryptUserData decrypts an envelope and JSON-deserializes the plaintext
// into dst.
func (e *envelopeUseCase) DecryptUserData(
	ctx context.Context,
	env *envelopeDomain.Envelope,
	userID string,
	dst any,
) error {
	plaintext, err := e.DecryptForUser(ctx, env, userID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, dst); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "failed to deserialize payload")
	}
	return nil
}

// EncryptSessionData sanitizes a workout session payload and encrypts the
// sanitized form.
func (e *envelopeUseCase) EncryptSessionData(
	ctx context.Context,
	session map[string]any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	if session == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "session payload is required")
	}

	sanitized := e.sanitizer.SanitizeSession(session)
	return e.EncryptUserData(ctx, sanitized, userID)
}

// EncryptPoseData sanitizes a pose frame payload and encrypts the sanitized
// form.
func (e *envelopeUseCase) EncryptPoseData(
	ctx context.Context,
	frame map[string]any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	if frame == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "pose frame payload is required")
	}

	sanitized := e.sanitizer.SanitizePoseFrame(frame)
	return e.EncryptUserData(ctx, sanitized, userID)
}

// HealthCheck round-trips a probe payload through encrypt and decrypt.
//
// The probe identity has no issued key, so the check covers the default
// scope fallback, DEK generation, both AEAD paths and the key registry.
func (e *envelopeUseCase) HealthCheck(ctx context.Context) bool {
	env, err := e.EncryptForUser(ctx, healthProbePayload, healthProbeIdentity, "")
	if err != nil {
		e.logger.Warn("health check encrypt failed", slog.Any("error", err))
		return false
	}

	plaintext, err := e.DecryptForUser(ctx, env, healthProbeIdentity)
	if err != nil {
		e.logger.Warn("health check decrypt failed", slog.Any("error", err))
		return false
	}

	if !bytes.Equal(plaintext, healthProbePayload) {
		e.logger.Warn("health check round trip mismatch")
		return false
	}
	return true
}
