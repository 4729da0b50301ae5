package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	"github.com/fitvault/fitvault/internal/metrics"
)

// lifecycleUseCaseWithMetrics decorates LifecycleUseCase with metrics instrumentation.
type lifecycleUseCaseWithMetrics struct {
	next    LifecycleUseCase
	metrics metrics.BusinessMetrics
}

// NewLifecycleUseCaseWithMetrics wraps a LifecycleUseCase with metrics recording.
func NewLifecycleUseCaseWithMetrics(useCase LifecycleUseCase, m metrics.BusinessMetrics) LifecycleUseCase {
	return &lifecycleUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// IssueUserKey records metrics for key issuance operations.
func (l *lifecycleUseCaseWithMetrics) IssueUserKey(
	ctx context.Context,
	userID string,
) (*cryptoDomain.MasterKey, error) {
	start := time.Now()
	key, err := l.next.IssueUserKey(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "keys", "issue_user_key", status)
	l.metrics.RecordDuration(ctx, "keys", "issue_user_key", time.Since(start), status)

	return key, err
}

// RotateUserKey records metrics for key rotation operations.
func (l *lifecycleUseCaseWithMetrics) RotateUserKey(
	ctx context.Context,
	userID, oldKeyID string,
) (*cryptoDomain.MasterKey, error) {
	start := time.Now()
	key, err := l.next.RotateUserKey(ctx, userID, oldKeyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "keys", "rotate_user_key", status)
	l.metrics.RecordDuration(ctx, "keys", "rotate_user_key", time.Since(start), status)

	return key, err
}

// RetireKey records metrics for key retirement operations.
func (l *lifecycleUseCaseWithMetrics) RetireKey(ctx context.Context, keyID string) error {
	start := time.Now()
	err := l.next.RetireKey(ctx, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "keys", "retire_key", status)
	l.metrics.RecordDuration(ctx, "keys", "retire_key", time.Since(start), status)

	return err
}

// RotationEvents records metrics for rotation trail reads.
func (l *lifecycleUseCaseWithMetrics) RotationEvents(
	ctx context.Context,
	userID string,
) ([]cryptoDomain.RotationEvent, error) {
	start := time.Now()
	events, err := l.next.RotationEvents(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "keys", "rotation_events", status)
	l.metrics.RecordDuration(ctx, "keys", "rotation_events", time.Since(start), status)

	return events, err
}

// EnsureDefaultKey records metrics for default key bootstrap.
func (l *lifecycleUseCaseWithMetrics) EnsureDefaultKey(ctx context.Context) error {
	start := time.Now()
	err := l.next.EnsureDefaultKey(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "keys", "ensure_default_key", status)
	l.metrics.RecordDuration(ctx, "keys", "ensure_default_key", time.Since(start), status)

	return err
}
