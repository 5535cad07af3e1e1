package llm

import (
	"fmt"
	"sync"

	"interviewgpt/internal/config"
	"interviewgpt/internal/port"
)

// ProviderFactory is a function that creates a Provider from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.Provider, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// NewProvider creates a Provider from a provider config using the registered factory.
func NewProvider(cfg *config.ProviderConfig) (port.Provider, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
