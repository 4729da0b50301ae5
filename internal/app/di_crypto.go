package app

import (
	"fmt"

	cryptoHTTP "github.com/fitvault/fitvault/internal/crypto/http"
	cryptoRepository "github.com/fitvault/fitvault/internal/crypto/repository"
	cryptoService "github.com/fitvault/fitvault/internal/crypto/service"
	cryptoUseCase "github.com/fitvault/fitvault/internal/crypto/usecase"
)

// KeyStore returns the in-memory master key registry.
func (c *Container) KeyStore() cryptoUseCase.KeyStore {
	c.keyStoreInit.Do(func() {
		c.keyStore = cryptoRepository.NewMemoryKeyStore()
	})
	return c.keyStore
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service used to unwrap the default master key.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// EnvelopeCipher returns the envelope cipher service.
func (c *Container) EnvelopeCipher() *cryptoService.EnvelopeCipherService {
	c.envelopeCipherInit.Do(func() {
		c.envelopeCipher = cryptoService.NewEnvelopeCipher(c.AEADManager())
	})
	return c.envelopeCipher
}

// LifecycleUseCase returns the key lifecycle use case.
func (c *Container) LifecycleUseCase() (cryptoUseCase.LifecycleUseCase, error) {
	var err error
	c.lifecycleUseCaseInit.Do(func() {
		c.lifecycleUseCase, err = c.initLifecycleUseCase()
		if err != nil {
			c.initErrors["lifecycleUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["lifecycleUseCase"]; exists {
		return nil, storedErr
	}
	return c.lifecycleUseCase, nil
}

// KeyHandler returns the key management HTTP handler.
func (c *Container) KeyHandler() (*cryptoHTTP.KeyHandler, error) {
	var err error
	c.keyHandlerInit.Do(func() {
		c.keyHandler, err = c.initKeyHandler()
		if err != nil {
			c.initErrors["keyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyHandler"]; exists {
		return nil, storedErr
	}
	return c.keyHandler, nil
}

// initLifecycleUseCase creates the lifecycle use case with all its dependencies.
func (c *Container) initLifecycleUseCase() (cryptoUseCase.LifecycleUseCase, error) {
	baseUseCase := cryptoUseCase.NewLifecycleUseCase(
		c.KeyStore(),
		c.KMSService(),
		c.config,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for lifecycle use case: %w", err)
		}
		return cryptoUseCase.NewLifecycleUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initKeyHandler creates the key management HTTP handler with all its dependencies.
func (c *Container) initKeyHandler() (*cryptoHTTP.KeyHandler, error) {
	lifecycleUseCase, err := c.LifecycleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get lifecycle use case for key handler: %w", err)
	}

	return cryptoHTTP.NewKeyHandler(lifecycleUseCase, c.Logger()), nil
}
