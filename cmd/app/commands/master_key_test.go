package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// Manual mocks for KMS since they might not be generated in all environments
type MockKMSService struct {
	mock.Mock
}

func (m *MockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoDomain.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoDomain.KMSKeeper), args.Error(1)
}

type MockKMSKeeper struct {
	mock.Mock
}

func (m *MockKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Close() error {
	return m.Called().Error(0)
}

func TestRunCreateMasterKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success-kms-mode", func(t *testing.T) {
		mockService := &MockKMSService{}
		mockKeeper := &MockKMSKeeper{}

		mockService.On("OpenKeeper", ctx, "base64key://...").Return(mockKeeper, nil)
		mockKeeper.On("Encrypt", ctx, mock.AnythingOfType("[]uint8")).Return([]byte("encrypted"), nil)
		mockKeeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunCreateMasterKey(
			ctx,
			mockService,
			logger,
			&out,
			"test-key",
			"localsecrets",
			"base64key://...",
		)
		require.NoError(t, err)
		require.Contains(t, out.String(), "DEFAULT_MASTER_KEY=\"test-key:")
		require.Contains(t, out.String(), "KMS_PROVIDER=\"localsecrets\"")

		mockService.AssertExpectations(t)
		mockKeeper.AssertExpectations(t)
	})

	t.Run("success-raw-mode", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, nil, logger, &out, "dev-key", "", "")
		require.NoError(t, err)
		require.Contains(t, out.String(), "DEFAULT_MASTER_KEY=\"dev-key:")
		require.Contains(t, out.String(), "WARNING: raw key mode")
		require.NotContains(t, out.String(), "KMS_PROVIDER=")

		// The emitted value must decode to exactly 32 bytes of key material
		line := ""
		for _, l := range strings.Split(out.String(), "\n") {
			if strings.HasPrefix(l, "DEFAULT_MASTER_KEY=") {
				line = l
				break
			}
		}
		require.NotEmpty(t, line)
		encoded := strings.TrimSuffix(strings.TrimPrefix(line, "DEFAULT_MASTER_KEY=\"dev-key:"), "\"")
		material, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		require.Len(t, material, cryptoDomain.KeySize)
	})

	t.Run("default-key-id", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, nil, logger, &out, "", "", "")
		require.NoError(t, err)
		require.Contains(t, out.String(), "DEFAULT_MASTER_KEY=\"default-")
	})

	t.Run("mismatched-kms-flags", func(t *testing.T) {
		err := RunCreateMasterKey(ctx, nil, logger, nil, "", "localsecrets", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "required together")
	})

	t.Run("kms-error", func(t *testing.T) {
		mockService := &MockKMSService{}
		mockService.On("OpenKeeper", ctx, "invalid").Return(nil, errors.New("kms error"))

		err := RunCreateMasterKey(
			ctx,
			mockService,
			logger,
			&bytes.Buffer{},
			"test-key",
			"localsecrets",
			"invalid",
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}
