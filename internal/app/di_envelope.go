package app

import (
	"fmt"

	envelopeHTTP "github.com/fitvault/fitvault/internal/envelope/http"
	envelopeUseCase "github.com/fitvault/fitvault/internal/envelope/usecase"
	privacyService "github.com/fitvault/fitvault/internal/privacy/service"
)

// PayloadSanitizer returns the payload sanitizer keyed with the configured salt.
func (c *Container) PayloadSanitizer() *privacyService.PayloadSanitizer {
	c.sanitizerInit.Do(func() {
		c.sanitizer = privacyService.NewPayloadSanitizer(c.config.SanitizerSalt)
	})
	return c.sanitizer
}

// EnvelopeUseCase returns the envelope encryption use case.
func (c *Container) EnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	var err error
	c.envelopeUseCaseInit.Do(func() {
		c.envelopeUC, err = c.initEnvelopeUseCase()
		if err != nil {
			c.initErrors["envelopeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeUseCase"]; exists {
		return nil, storedErr
	}
	return c.envelopeUC, nil
}

// EnvelopeHandler returns the envelope encryption HTTP handler.
func (c *Container) EnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	var err error
	c.envelopeHandlerInit.Do(func() {
		c.envelopeHandler, err = c.initEnvelopeHandler()
		if err != nil {
			c.initErrors["envelopeHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeHandler"]; exists {
		return nil, storedErr
	}
	return c.envelopeHandler, nil
}

// initEnvelopeUseCase creates the envelope use case with all its dependencies.
// The key store registry satisfies the narrower KeyResolver seam the envelope
// path needs.
func (c *Container) initEnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	baseUseCase := envelopeUseCase.NewEnvelopeUseCase(
		c.KeyStore(),
		c.EnvelopeCipher(),
		c.PayloadSanitizer(),
		c.config,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for envelope use case: %w", err)
		}
		return envelopeUseCase.NewEnvelopeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initEnvelopeHandler creates the envelope HTTP handler with all its dependencies.
func (c *Container) initEnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	envelopeUC, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for envelope handler: %w", err)
	}

	return envelopeHTTP.NewEnvelopeHandler(envelopeUC, c.Logger()), nil
}
