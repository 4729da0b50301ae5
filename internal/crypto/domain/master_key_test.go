package domain

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyMaterial(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewMasterKey(t *testing.T) {
	t.Run("creates active key with copied material", func(t *testing.T) {
		material := testKeyMaterial(t)

		mk, err := NewMasterKey("key-1", material, AESGCM, "user-42")
		require.NoError(t, err)

		assert.Equal(t, "key-1", mk.KeyID)
		assert.Equal(t, AESGCM, mk.Algorithm)
		assert.Equal(t, "user-42", mk.OwnerScope)
		assert.Equal(t, KeyStateActive, mk.State)
		assert.Empty(t, mk.RotatedFrom)
		assert.False(t, mk.CreatedAt.IsZero())
		assert.Equal(t, material, mk.Key)

		// Zeroing the caller's buffer must not touch the stored material.
		Zero(material)
		assert.NotEqual(t, material, mk.Key)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		_, err := NewMasterKey("key-1", make([]byte, 16), AESGCM, "user-42")
		assert.ErrorIs(t, err, ErrInvalidKeySize)

		_, err = NewMasterKey("key-1", make([]byte, 64), AESGCM, "user-42")
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("rejects unsupported algorithm", func(t *testing.T) {
		_, err := NewMasterKey("key-1", testKeyMaterial(t), Algorithm("des"), "user-42")
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("accepts chacha20-poly1305", func(t *testing.T) {
		mk, err := NewMasterKey("key-1", testKeyMaterial(t), ChaCha20, "user-42")
		require.NoError(t, err)
		assert.Equal(t, ChaCha20, mk.Algorithm)
	})
}

func TestMasterKey_Lifecycle(t *testing.T) {
	newActive := func(t *testing.T) *MasterKey {
		mk, err := NewMasterKey("key-1", testKeyMaterial(t), AESGCM, "user-42")
		require.NoError(t, err)
		return mk
	}

	t.Run("active key encrypts and decrypts", func(t *testing.T) {
		mk := newActive(t)
		assert.True(t, mk.CanEncrypt())
		assert.True(t, mk.CanDecrypt())
	})

	t.Run("deprecate active key", func(t *testing.T) {
		mk := newActive(t)
		require.NoError(t, mk.Deprecate())

		assert.Equal(t, KeyStateDeprecated, mk.State)
		assert.False(t, mk.CanEncrypt())
		assert.True(t, mk.CanDecrypt())
		assert.NotNil(t, mk.Key, "deprecated keys keep their material")
	})

	t.Run("retire deprecated key zeroes material", func(t *testing.T) {
		mk := newActive(t)
		require.NoError(t, mk.Deprecate())
		require.NoError(t, mk.Retire())

		assert.Equal(t, KeyStateRetired, mk.State)
		assert.False(t, mk.CanEncrypt())
		assert.False(t, mk.CanDecrypt())
		assert.Nil(t, mk.Key)
	})

	t.Run("retire active key is rejected", func(t *testing.T) {
		mk := newActive(t)
		assert.ErrorIs(t, mk.Retire(), ErrInvalidKeyState)
		assert.Equal(t, KeyStateActive, mk.State)
	})

	t.Run("deprecate twice is rejected", func(t *testing.T) {
		mk := newActive(t)
		require.NoError(t, mk.Deprecate())
		assert.ErrorIs(t, mk.Deprecate(), ErrInvalidKeyState)
	})

	t.Run("no path back from retired", func(t *testing.T) {
		mk := newActive(t)
		require.NoError(t, mk.Deprecate())
		require.NoError(t, mk.Retire())

		assert.ErrorIs(t, mk.Deprecate(), ErrInvalidKeyState)
		assert.ErrorIs(t, mk.Retire(), ErrInvalidKeyState)
	})
}

func TestMasterKey_Snapshot(t *testing.T) {
	mk, err := NewMasterKey("key-1", testKeyMaterial(t), AESGCM, "user-42")
	require.NoError(t, err)

	snap := mk.Snapshot()

	assert.Equal(t, mk.KeyID, snap.KeyID)
	assert.Equal(t, mk.Key, snap.Key)

	// Mutating the snapshot's material must not affect the original.
	Zero(snap.Key)
	assert.NotEqual(t, snap.Key, mk.Key)

	// Retiring the original must not thrash a previously-taken snapshot.
	snap2 := mk.Snapshot()
	require.NoError(t, mk.Deprecate())
	require.NoError(t, mk.Retire())
	assert.NotNil(t, snap2.Key)
	assert.Equal(t, KeyStateActive, snap2.State)
}
