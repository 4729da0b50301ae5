package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitvault/fitvault/internal/config"
	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	cryptoService "github.com/fitvault/fitvault/internal/crypto/service"
	apperrors "github.com/fitvault/fitvault/internal/errors"
)

// lifecycleUseCase implements the LifecycleUseCase interface.
//
// Rotation events are kept in process memory alongside the key registry;
// they are an operational audit trail, not durable storage. The events map
// has its own mutex because the trail is written after the store mutation
// commits and read independently of it.
type lifecycleUseCase struct {
	store  KeyStore
	kms    cryptoService.KMSService
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.Mutex
	events map[string][]cryptoDomain.RotationEvent
}

// NewLifecycleUseCase creates a lifecycle manager backed by the given key
// store. The KMS service and configuration are used only by
// EnsureDefaultKey to bootstrap the default-scope key.
func NewLifecycleUseCase(
	store KeyStore,
	kms cryptoService.KMSService,
	cfg *config.Config,
	logger *slog.Logger,
) LifecycleUseCase {
	return &lifecycleUseCase{
		store:  store,
		kms:    kms,
		cfg:    cfg,
		logger: logger,
		events: make(map[string][]cryptoDomain.RotationEvent),
	}
}

// newUserKey generates a fresh active master key owned by userID. Every key
// gets a UUIDv7 identifier; identifiers are never reused, so collisions
// cannot occur even across rotations of the same user.
func (l *lifecycleUseCase) newUserKey(userID string) (*cryptoDomain.MasterKey, error) {
	material := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	defer cryptoDomain.Zero(material)

	keyID := uuid.Must(uuid.NewV7()).String()
	return cryptoDomain.NewMasterKey(keyID, material, cryptoDomain.AESGCM, userID)
}

// IssueUserKey creates and registers a fresh key for userID.
//
// The one-active-key-per-user rule is enforced by the store under its write
// lock, so concurrent issues for the same user cannot both succeed; the
// loser observes ErrDuplicateKeyID exactly as if it had checked first.
func (l *lifecycleUseCase) IssueUserKey(ctx context.Context, userID string) (*cryptoDomain.MasterKey, error) {
	if userID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "user id is required")
	}

	key, err := l.newUserKey(userID)
	if err != nil {
		return nil, err
	}

	if err := l.store.Register(ctx, key); err != nil {
		cryptoDomain.Zero(key.Key)
		return nil, err
	}

	l.logger.Info("issued user key",
		slog.String("user_id", userID),
		slog.String("key_id", key.KeyID),
	)

	// The registry holds the only live copy of the material.
	cryptoDomain.Zero(key.Key)
	key.Key = nil
	return key, nil
}

// RotateUserKey replaces oldKeyID with a fresh key for userID.
//
// The sequence is resolve, verify ownership, deprecate, register. Decrypt
// capability of the old key is preserved: envelopes sealed under it remain
// readable until the key is retired. Two rotations racing on the same old
// key cannot both succeed; the loser fails on the deprecate step with
// ErrInvalidKeyState.
func (l *lifecycleUseCase) RotateUserKey(ctx context.Context, userID, oldKeyID string) (*cryptoDomain.MasterKey, error) {
	if userID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "user id is required")
	}

	oldKey, err := l.store.Resolve(ctx, oldKeyID)
	if err != nil {
		return nil, err
	}
	cryptoDomain.Zero(oldKey.Key)

	if oldKey.OwnerScope != userID {
		return nil, cryptoDomain.ErrIdentityMismatch
	}

	newKey, err := l.newUserKey(userID)
	if err != nil {
		return nil, err
	}
	newKey.RotatedFrom = oldKeyID

	if err := l.store.Deprecate(ctx, oldKeyID); err != nil {
		cryptoDomain.Zero(newKey.Key)
		return nil, err
	}

	if err := l.store.Register(ctx, newKey); err != nil {
		// The old key is already deprecated and the state machine is
		// one-way, so the scope is left without an active key. Encryption
		// falls back to the default key until the user is re-issued.
		cryptoDomain.Zero(newKey.Key)
		l.logger.Error("rotation failed after deprecating the old key",
			slog.String("user_id", userID),
			slog.String("old_key_id", oldKeyID),
			slog.Any("error", err),
		)
		return nil, err
	}

	event := cryptoDomain.RotationEvent{
		UserID:    userID,
		OldKeyID:  oldKeyID,
		NewKeyID:  newKey.KeyID,
		RotatedAt: time.Now().UTC(),
	}
	l.mu.Lock()
	l.events[userID] = append(l.events[userID], event)
	l.mu.Unlock()

	l.logger.Info("rotated user key",
		slog.String("user_id", userID),
		slog.String("old_key_id", oldKeyID),
		slog.String("new_key_id", newKey.KeyID),
	)

	cryptoDomain.Zero(newKey.Key)
	newKey.Key = nil
	return newKey, nil
}

// RetireKey permanently disables a deprecated key. The store zeroes the
// material and keeps a tombstone so the identifier can never be reissued.
func (l *lifecycleUseCase) RetireKey(ctx context.Context, keyID string) error {
	if err := l.store.Retire(ctx, keyID); err != nil {
		return err
	}

	l.logger.Info("retired key", slog.String("key_id", keyID))
	return nil
}

// RotationEvents returns the rotation trail for userID, oldest first.
func (l *lifecycleUseCase) RotationEvents(_ context.Context, userID string) ([]cryptoDomain.RotationEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]cryptoDomain.RotationEvent, len(l.events[userID]))
	copy(events, l.events[userID])
	return events, nil
}

// EnsureDefaultKey bootstraps the default-scope key from configuration.
//
// Idempotent: when the default scope already has an active key, or another
// caller registers one concurrently, the call reports success without
// touching the registry.
func (l *lifecycleUseCase) EnsureDefaultKey(ctx context.Context) error {
	if _, err := l.store.ActiveForScope(ctx, cryptoDomain.DefaultKeyScope); err == nil {
		return nil
	}

	key, err := cryptoService.LoadDefaultMasterKey(ctx, l.cfg, l.kms, l.logger)
	if err != nil {
		return fmt.Errorf("failed to load default master key: %w", err)
	}
	defer cryptoDomain.Zero(key.Key)

	if err := l.store.Register(ctx, key); err != nil {
		if apperrors.Is(err, cryptoDomain.ErrDuplicateKeyID) {
			return nil
		}
		return fmt.Errorf("failed to register default master key: %w", err)
	}

	l.logger.Info("default master key ready",
		slog.String("key_id", key.KeyID),
		slog.Int("keys", l.store.Keys(ctx)),
	)
	return nil
}
