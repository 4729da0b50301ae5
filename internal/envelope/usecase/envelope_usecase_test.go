package usecase_test

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitvault/fitvault/internal/config"
	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	"github.com/fitvault/fitvault/internal/crypto/repository"
	cryptoService "github.com/fitvault/fitvault/internal/crypto/service"
	cryptoUsecase "github.com/fitvault/fitvault/internal/crypto/usecase"
	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
	"github.com/fitvault/fitvault/internal/envelope/usecase"
	apperrors "github.com/fitvault/fitvault/internal/errors"
	privacyService "github.com/fitvault/fitvault/internal/privacy/service"
)

type envelopeFixture struct {
	uc        usecase.EnvelopeUseCase
	lifecycle cryptoUsecase.LifecycleUseCase
	store     *repository.MemoryKeyStore
	cfg       *config.Config
}

// newEnvelopeFixture wires the facade with real collaborators and an
// ephemeral default key already registered.
func newEnvelopeFixture(t *testing.T) *envelopeFixture {
	t.Helper()

	cfg := &config.Config{
		DefaultKeyID:           "default",
		SanitizerSalt:          "test-salt",
		KeyStoreMaxRetries:     3,
		KeyStoreRetryBaseDelay: time.Millisecond,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryKeyStore()
	lifecycle := cryptoUsecase.NewLifecycleUseCase(store, cryptoService.NewKMSService(), cfg, logger)
	require.NoError(t, lifecycle.EnsureDefaultKey(context.Background()))

	cipher := cryptoService.NewEnvelopeCipher(cryptoService.NewAEADManager())
	sanitizer := privacyService.NewPayloadSanitizer(cfg.SanitizerSalt)

	return &envelopeFixture{
		uc:        usecase.NewEnvelopeUseCase(store, cipher, sanitizer, cfg, logger),
		lifecycle: lifecycle,
		store:     store,
		cfg:       cfg,
	}
}

// withResolver rebuilds the facade on top of a different key resolver,
// keeping the other collaborators.
func (f *envelopeFixture) withResolver(resolver usecase.KeyResolver) usecase.EnvelopeUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cipher := cryptoService.NewEnvelopeCipher(cryptoService.NewAEADManager())
	sanitizer := privacyService.NewPayloadSanitizer(f.cfg.SanitizerSalt)
	return usecase.NewEnvelopeUseCase(resolver, cipher, sanitizer, f.cfg, logger)
}

// flakyResolver reports the key store unavailable for a fixed number of
// lookups before delegating to the real one.
type flakyResolver struct {
	next     usecase.KeyResolver
	failures int
}

func (f *flakyResolver) Resolve(ctx context.Context, keyID string) (*cryptoDomain.MasterKey, error) {
	if f.failures > 0 {
		f.failures--
		return nil, cryptoDomain.ErrKeyStoreUnavailable
	}
	return f.next.Resolve(ctx, keyID)
}

func (f *flakyResolver) ActiveForScope(ctx context.Context, scope string) (*cryptoDomain.MasterKey, error) {
	if f.failures > 0 {
		f.failures--
		return nil, cryptoDomain.ErrKeyStoreUnavailable
	}
	return f.next.ActiveForScope(ctx, scope)
}

func TestEnvelopeUseCase_EncryptForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("seals a complete envelope under the user's active key", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)

		plaintext := []byte(`{"heart_rate": 72}`)
		env, err := f.uc.EncryptForUser(ctx, plaintext, "user-42", "")
		require.NoError(t, err)

		require.NoError(t, env.Validate())
		assert.Equal(t, issued.KeyID, env.KeyID)
		assert.Equal(t, "user-42", env.AssociatedData)
		assert.Len(t, env.Nonce, cryptoDomain.NonceSize)
		assert.Len(t, env.AuthTag, cryptoDomain.TagSize)
		assert.Len(t, env.WrappedKey, envelopeDomain.WrappedKeySize)
		assert.NotEqual(t, plaintext, env.Ciphertext)
		assert.False(t, env.CreatedAt.IsZero())

		got, err := f.uc.DecryptForUser(ctx, env, "user-42")
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	})

	t.Run("falls back to the default key when the user has none", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		defaultKey, err := f.store.ActiveForScope(ctx, cryptoDomain.DefaultKeyScope)
		require.NoError(t, err)

		env, err := f.uc.EncryptForUser(ctx, []byte("no personal key yet"), "user-99", "")
		require.NoError(t, err)

		assert.Equal(t, defaultKey.KeyID, env.KeyID)
		assert.Equal(t, "user-99", env.AssociatedData)

		got, err := f.uc.DecryptForUser(ctx, env, "user-99")
		require.NoError(t, err)
		assert.Equal(t, []byte("no personal key yet"), got)
	})

	t.Run("explicit key id selects that key", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)

		env, err := f.uc.EncryptForUser(ctx, []byte("explicit"), "user-42", issued.KeyID)
		require.NoError(t, err)
		assert.Equal(t, issued.KeyID, env.KeyID)
	})

	t.Run("explicit default key is usable by any user", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		defaultKey, err := f.store.ActiveForScope(ctx, cryptoDomain.DefaultKeyScope)
		require.NoError(t, err)

		env, err := f.uc.EncryptForUser(ctx, []byte("shared scope"), "user-42", defaultKey.KeyID)
		require.NoError(t, err)
		assert.Equal(t, defaultKey.KeyID, env.KeyID)
	})

	t.Run("explicit key owned by another user is rejected", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		other, err := f.lifecycle.IssueUserKey(ctx, "user-1")
		require.NoError(t, err)

		_, err = f.uc.EncryptForUser(ctx, []byte("cross tenant"), "user-2", other.KeyID)
		assert.ErrorIs(t, err, cryptoDomain.ErrIdentityMismatch)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("explicit deprecated key is rejected", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)
		_, err = f.lifecycle.RotateUserKey(ctx, "user-42", issued.KeyID)
		require.NoError(t, err)

		_, err = f.uc.EncryptForUser(ctx, []byte("stale key"), "user-42", issued.KeyID)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotEligible)
	})

	t.Run("unknown explicit key id", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		_, err := f.uc.EncryptForUser(ctx, []byte("x"), "user-42", "no-such-key")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})

	t.Run("empty user id", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		_, err := f.uc.EncryptForUser(ctx, []byte("x"), "", "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("empty plaintext round trips", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		env, err := f.uc.EncryptForUser(ctx, nil, "user-42", "")
		require.NoError(t, err)
		assert.Empty(t, env.Ciphertext)
		assert.Len(t, env.AuthTag, cryptoDomain.TagSize)

		got, err := f.uc.DecryptForUser(ctx, env, "user-42")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("nonces and wrapped keys never repeat", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		first, err := f.uc.EncryptForUser(ctx, []byte("same plaintext"), "user-42", "")
		require.NoError(t, err)
		second, err := f.uc.EncryptForUser(ctx, []byte("same plaintext"), "user-42", "")
		require.NoError(t, err)

		assert.NotEqual(t, first.Nonce, second.Nonce)
		assert.NotEqual(t, first.WrappedKey, second.WrappedKey)
		assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
	})

	t.Run("new envelopes use the rotated key", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)

		before, err := f.uc.EncryptForUser(ctx, []byte("pre rotation"), "user-42", "")
		require.NoError(t, err)

		rotated, err := f.lifecycle.RotateUserKey(ctx, "user-42", issued.KeyID)
		require.NoError(t, err)

		after, err := f.uc.EncryptForUser(ctx, []byte("post rotation"), "user-42", "")
		require.NoError(t, err)
		assert.Equal(t, rotated.KeyID, after.KeyID)

		// Envelopes sealed before the rotation stay readable.
		got, err := f.uc.DecryptForUser(ctx, before, "user-42")
		require.NoError(t, err)
		assert.Equal(t, []byte("pre rotation"), got)
	})

	t.Run("retries while the key store is unavailable", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		uc := f.withResolver(&flakyResolver{next: f.store, failures: 2})

		env, err := uc.EncryptForUser(ctx, []byte("eventually"), "user-42", "")
		require.NoError(t, err)
		assert.Equal(t, "user-42", env.AssociatedData)
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		uc := f.withResolver(&flakyResolver{next: f.store, failures: 10})

		_, err := uc.EncryptForUser(ctx, []byte("never"), "user-42", "")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyStoreUnavailable)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}

func TestEnvelopeUseCase_DecryptForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips under a chacha20 master key", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		material := make([]byte, cryptoDomain.KeySize)
		_, err := rand.Read(material)
		require.NoError(t, err)
		key, err := cryptoDomain.NewMasterKey("chacha-key", material, cryptoDomain.ChaCha20, "user-42")
		require.NoError(t, err)
		require.NoError(t, f.store.Register(ctx, key))

		env, err := f.uc.EncryptForUser(ctx, []byte("stream cipher"), "user-42", "")
		require.NoError(t, err)
		assert.Equal(t, "chacha-key", env.KeyID)

		got, err := f.uc.DecryptForUser(ctx, env, "user-42")
		require.NoError(t, err)
		assert.Equal(t, []byte("stream cipher"), got)
	})

	t.Run("identity mismatch is rejected before any cryptography", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		env, err := f.uc.EncryptForUser(ctx, []byte("mine"), "user-42", "")
		require.NoError(t, err)

		_, err = f.uc.DecryptForUser(ctx, env, "user-43")
		assert.ErrorIs(t, err, cryptoDomain.ErrIdentityMismatch)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("reassigned associated data fails authentication", func(t *testing.T) {
		// Editing the envelope so the identity check passes for another
		// user still fails, because the original identity is bound into
		// both AEAD operations.
		f := newEnvelopeFixture(t)
		env, err := f.uc.EncryptForUser(ctx, []byte("mine"), "user-42", "")
		require.NoError(t, err)

		env.AssociatedData = "user-43"
		_, err = f.uc.DecryptForUser(ctx, env, "user-43")
		assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailure)
	})

	t.Run("tampering with any field fails authentication", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		tampers := map[string]func(env *envelopeDomain.Envelope){
			"ciphertext": func(env *envelopeDomain.Envelope) { env.Ciphertext[0] ^= 0x01 },
			"nonce":      func(env *envelopeDomain.Envelope) { env.Nonce[0] ^= 0x01 },
			"auth tag":   func(env *envelopeDomain.Envelope) { env.AuthTag[0] ^= 0x01 },
			"wrapped key": func(env *envelopeDomain.Envelope) {
				env.WrappedKey[envelopeDomain.WrappedKeySize/2] ^= 0x01
			},
		}

		for name, tamper := range tampers {
			t.Run(name, func(t *testing.T) {
				env, err := f.uc.EncryptForUser(ctx, []byte("integrity"), "user-42", "")
				require.NoError(t, err)

				tamper(env)
				_, err = f.uc.DecryptForUser(ctx, env, "user-42")
				assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailure)
			})
		}
	})

	t.Run("malformed envelopes are rejected without cryptography", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		valid, err := f.uc.EncryptForUser(ctx, []byte("shape"), "user-42", "")
		require.NoError(t, err)

		t.Run("nil envelope", func(t *testing.T) {
			_, err := f.uc.DecryptForUser(ctx, nil, "user-42")
			assert.ErrorIs(t, err, envelopeDomain.ErrMalformedEnvelope)
		})

		t.Run("missing key id", func(t *testing.T) {
			env := *valid
			env.KeyID = ""
			_, err := f.uc.DecryptForUser(ctx, &env, "user-42")
			assert.ErrorIs(t, err, envelopeDomain.ErrMalformedEnvelope)
		})

		t.Run("truncated wrapped key", func(t *testing.T) {
			env := *valid
			env.WrappedKey = env.WrappedKey[:10]
			_, err := f.uc.DecryptForUser(ctx, &env, "user-42")
			assert.ErrorIs(t, err, envelopeDomain.ErrMalformedEnvelope)
		})

		t.Run("oversized nonce", func(t *testing.T) {
			env := *valid
			env.Nonce = append([]byte{}, env.Nonce...)
			env.Nonce = append(env.Nonce, 0x00)
			_, err := f.uc.DecryptForUser(ctx, &env, "user-42")
			assert.ErrorIs(t, err, envelopeDomain.ErrMalformedEnvelope)
		})
	})

	t.Run("deprecated key still decrypts", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)

		env, err := f.uc.EncryptForUser(ctx, []byte("survives rotation"), "user-42", "")
		require.NoError(t, err)

		_, err = f.lifecycle.RotateUserKey(ctx, "user-42", issued.KeyID)
		require.NoError(t, err)

		got, err := f.uc.DecryptForUser(ctx, env, "user-42")
		require.NoError(t, err)
		assert.Equal(t, []byte("survives rotation"), got)
	})

	t.Run("retired key fails closed", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		issued, err := f.lifecycle.IssueUserKey(ctx, "user-42")
		require.NoError(t, err)

		env, err := f.uc.EncryptForUser(ctx, []byte("soon unreadable"), "user-42", "")
		require.NoError(t, err)

		_, err = f.lifecycle.RotateUserKey(ctx, "user-42", issued.KeyID)
		require.NoError(t, err)
		require.NoError(t, f.lifecycle.RetireKey(ctx, issued.KeyID))

		_, err = f.uc.DecryptForUser(ctx, env, "user-42")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})

	t.Run("unknown key id in the envelope", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		env, err := f.uc.EncryptForUser(ctx, []byte("x"), "user-42", "")
		require.NoError(t, err)

		env.KeyID = "no-such-key"
		_, err = f.uc.DecryptForUser(ctx, env, "user-42")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})
}

func TestEnvelopeUseCase_UserData(t *testing.T) {
	ctx := context.Background()

	type fitnessProfile struct {
		Name          string `json:"name"`
		RestingHR     int    `json:"restingHr"`
		WeeklyTargets []int  `json:"weeklyTargets"`
	}

	t.Run("struct round trips through JSON", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		original := fitnessProfile{Name: "morning runner", RestingHR: 52, WeeklyTargets: []int{3, 4, 3}}

		env, err := f.uc.EncryptUserData(ctx, original, "user-42")
		require.NoError(t, err)

		var got fitnessProfile
		require.NoError(t, f.uc.DecryptUserData(ctx, env, "user-42", &got))
		assert.Equal(t, original, got)
	})

	t.Run("map round trips through JSON", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		original := map[string]any{"steps": float64(10250), "active": true}

		env, err := f.uc.EncryptUserData(ctx, original, "user-42")
		require.NoError(t, err)

		got := map[string]any{}
		require.NoError(t, f.uc.DecryptUserData(ctx, env, "user-42", &got))
		assert.Equal(t, original, got)
	})

	t.Run("unserializable value is invalid input", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		_, err := f.uc.EncryptUserData(ctx, make(chan int), "user-42")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("mismatched destination is invalid input", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		env, err := f.uc.EncryptUserData(ctx, "just a string", "user-42")
		require.NoError(t, err)

		var dst fitnessProfile
		err = f.uc.DecryptUserData(ctx, env, "user-42", &dst)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("identity binding carries through the JSON wrappers", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		env, err := f.uc.EncryptUserData(ctx, map[string]any{"weight": 70.5}, "user-42")
		require.NoError(t, err)

		got := map[string]any{}
		err = f.uc.DecryptUserData(ctx, env, "user-43", &got)
		assert.ErrorIs(t, err, cryptoDomain.ErrIdentityMismatch)
	})
}

func TestEnvelopeUseCase_EncryptSessionData(t *testing.T) {
	ctx := context.Background()

	t.Run("notes never survive the round trip", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		session := map[string]any{
			"user_id": "user-42",
			"reps":    10,
			"notes":   "felt great",
		}

		env, err := f.uc.EncryptSessionData(ctx, session, "user-42")
		require.NoError(t, err)

		got := map[string]any{}
		require.NoError(t, f.uc.DecryptUserData(ctx, env, "user-42", &got))

		assert.NotContains(t, got, "notes")
		assert.Equal(t, float64(10), got["reps"])

		pseudonym, ok := got["user_id"].(string)
		require.True(t, ok)
		assert.NotEqual(t, "user-42", pseudonym)
		assert.Len(t, pseudonym, 16)
	})

	t.Run("nested exercise notes are stripped too", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		session := map[string]any{
			"user_id": "user-42",
			"exercises": []any{
				map[string]any{"name": "squat", "reps": 12, "notes": "deep"},
			},
		}

		env, err := f.uc.EncryptSessionData(ctx, session, "user-42")
		require.NoError(t, err)

		got := map[string]any{}
		require.NoError(t, f.uc.DecryptUserData(ctx, env, "user-42", &got))

		exercises, ok := got["exercises"].([]any)
		require.True(t, ok)
		entry, ok := exercises[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "squat", entry["name"])
		assert.NotContains(t, entry, "notes")
	})

	t.Run("input session is not mutated", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		session := map[string]any{"user_id": "user-42", "notes": "raw"}

		_, err := f.uc.EncryptSessionData(ctx, session, "user-42")
		require.NoError(t, err)

		assert.Equal(t, "user-42", session["user_id"])
		assert.Equal(t, "raw", session["notes"])
	})

	t.Run("nil session", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		_, err := f.uc.EncryptSessionData(ctx, nil, "user-42")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestEnvelopeUseCase_EncryptPoseData(t *testing.T) {
	ctx := context.Background()

	t.Run("facial landmarks never survive the round trip", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		frame := map[string]any{
			"timestamp": 1724587200.987,
			"keypoints": map[string]any{
				"nose":          map[string]any{"x": 0.5, "y": 0.3},
				"left_eye":      map[string]any{"x": 0.47, "y": 0.28},
				"left_shoulder": map[string]any{"x": 0.4, "y": 0.45},
			},
		}

		env, err := f.uc.EncryptPoseData(ctx, frame, "user-42")
		require.NoError(t, err)

		got := map[string]any{}
		require.NoError(t, f.uc.DecryptUserData(ctx, env, "user-42", &got))

		keypoints, ok := got["keypoints"].(map[string]any)
		require.True(t, ok)
		assert.NotContains(t, keypoints, "nose")
		assert.NotContains(t, keypoints, "left_eye")
		assert.Contains(t, keypoints, "left_shoulder")
		assert.Equal(t, float64(1724587200), got["timestamp"])
	})

	t.Run("input frame is not mutated", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		frame := map[string]any{
			"timestamp": 88.8,
			"keypoints": map[string]any{"nose": map[string]any{"x": 0.5}},
		}

		_, err := f.uc.EncryptPoseData(ctx, frame, "user-42")
		require.NoError(t, err)

		assert.Equal(t, 88.8, frame["timestamp"])
		assert.Contains(t, frame["keypoints"].(map[string]any), "nose")
	})

	t.Run("nil frame", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		_, err := f.uc.EncryptPoseData(ctx, nil, "user-42")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestEnvelopeUseCase_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy system reports true", func(t *testing.T) {
		f := newEnvelopeFixture(t)

		assert.True(t, f.uc.HealthCheck(ctx))
	})

	t.Run("missing default key reports false", func(t *testing.T) {
		cfg := &config.Config{
			DefaultKeyID:           "default",
			SanitizerSalt:          "test-salt",
			KeyStoreMaxRetries:     1,
			KeyStoreRetryBaseDelay: time.Millisecond,
		}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		store := repository.NewMemoryKeyStore()
		cipher := cryptoService.NewEnvelopeCipher(cryptoService.NewAEADManager())
		sanitizer := privacyService.NewPayloadSanitizer(cfg.SanitizerSalt)
		uc := usecase.NewEnvelopeUseCase(store, cipher, sanitizer, cfg, logger)

		assert.False(t, uc.HealthCheck(ctx))
	})

	t.Run("unavailable key store reports false", func(t *testing.T) {
		f := newEnvelopeFixture(t)
		uc := f.withResolver(&flakyResolver{next: f.store, failures: 100})

		assert.False(t, uc.HealthCheck(ctx))
	})
}
