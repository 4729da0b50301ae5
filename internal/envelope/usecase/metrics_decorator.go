package usecase

import (
	"context"
	"time"

	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
	"github.com/fitvault/fitvault/internal/metrics"
)

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// EncryptForUser records metrics for byte-level encryption operations.
func (e *envelopeUseCaseWithMetrics) EncryptForUser(
	ctx context.Context,
	plaintext []byte,
	userID, keyID string,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	env, err := e.next.EncryptForUser(ctx, plaintext, userID, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "encrypt_for_user", status)
	e.metrics.RecordDuration(ctx, "envelope", "encrypt_for_user", time.Since(start), status)

	return env, err
}

// DecryptForUser records metrics for byte-level decryption operations.
func (e *envelopeUseCaseWithMetrics) DecryptForUser(
	ctx context.Context,
	env *envelopeDomain.Envelope,
	userID string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.DecryptForUser(ctx, env, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "decrypt_for_user", status)
	e.metrics.RecordDuration(ctx, "envelope", "decrypt_for_user", time.Since(start), status)

	return plaintext, err
}

// EncryptUserData records metrics for JSON encryption operations.
func (e *envelopeUseCaseWithMetrics) EncryptUserData(
	ctx context.Context,
	v any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	env, err := e.next.EncryptUserData(ctx, v, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "encrypt_user_data", status)
	e.metrics.RecordDuration(ctx, "envelope", "encrypt_user_data", time.Since(start), status)

	return env, err
}

// DecryptUserData records metrics for JSON decryption operations.
func (e *envelopeUseCaseWithMetrics) DecryptUserData(
	ctx context.Context,
	env *envelopeDomain.Envelope,
	userID string,
	dst any,
) error {
	start := time.Now()
	err := e.next.DecryptUserData(ctx, env, userID, dst)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "decrypt_user_data", status)
	e.metrics.RecordDuration(ctx, "envelope", "decrypt_user_data", time.Since(start), status)

	return err
}

// EncryptSessionData records metrics for session encryption operations.
func (e *envelopeUseCaseWithMetrics) EncryptSessionData(
	ctx context.Context,
	session map[string]any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	env, err := e.next.EncryptSessionData(ctx, session, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "encrypt_session_data", status)
	e.metrics.RecordDuration(ctx, "envelope", "encrypt_session_data", time.Since(start), status)

	return env, err
}

// EncryptPoseData records metrics for pose frame encryption operations.
func (e *envelopeUseCaseWithMetrics) EncryptPoseData(
	ctx context.Context,
	frame map[string]any,
	userID string,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	env, err := e.next.EncryptPoseData(ctx, frame, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "encrypt_pose_data", status)
	e.metrics.RecordDuration(ctx, "envelope", "encrypt_pose_data", time.Since(start), status)

	return env, err
}

// HealthCheck records metrics for health probe round trips.
func (e *envelopeUseCaseWithMetrics) HealthCheck(ctx context.Context) bool {
	start := time.Now()
	healthy := e.next.HealthCheck(ctx)

	status := "success"
	if !healthy {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "health_check", status)
	e.metrics.RecordDuration(ctx, "envelope", "health_check", time.Since(start), status)

	return healthy
}
