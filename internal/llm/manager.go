package llm

import (
	"context"
	"fmt"
	"sync"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
)

// Manager manages LLM providers and their lifecycle
type Manager struct {
	config   *config.Config
	factory  *Factory
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewFactory(cfg),
		logger:  logging.GetGlobalLogger(),
	}
}

// Start initializes the LLM manager and creates the provider
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	m.provider = provider

	m.logger.Info("LLM manager started", map[string]interface{}{
		"provider": provider.GetProviderName(),
		"model":    m.config.LLM.Model,
	})

	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.provider = nil
	return nil
}

// ExtractAd extracts structured ad data from markdown using the configured provider
func (m *Manager) ExtractAd(ctx context.Context, content, url string) (*models.Extraction, error) {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("LLM manager not started or provider not available")
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.LLM.Timeout)
	defer cancel()

	return provider.ExtractAd(ctx, content, url)
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}
