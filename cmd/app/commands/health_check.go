package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/fitvault/fitvault/internal/envelope/usecase"
)

// RunHealthCheck runs the envelope round-trip probe and reports the result.
//
// A failure returns an error so the process exits non-zero, which makes the
// command usable as a configuration preflight: it proves the default master
// key loads (including a KMS unwrap when configured) and that both AEAD
// paths work before a server is started with the same environment.
func RunHealthCheck(
	ctx context.Context,
	envelopeUC envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("running envelope health check")

	if !envelopeUC.HealthCheck(ctx) {
		return fmt.Errorf("health check failed")
	}

	_, _ = fmt.Fprintln(writer, `{"status": "healthy"}`)
	return nil
}
