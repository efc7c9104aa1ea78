package oracle

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Config selects and configures a backend.
type Config struct {
	// Provider is the registered backend name ("anthropic", "openai", "gemini").
	Provider string

	// Model overrides the backend's default model.
	Model string

	// APIKey overrides the backend's environment lookup.
	APIKey string

	// MaxTokens is the default response budget. Default: 4096.
	MaxTokens int64

	// Debug logs every prompt and response at debug level.
	Debug bool

	Logger *zap.Logger
}

// Constructor builds a backend from its config.
type Constructor func(cfg Config) (Oracle, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a backend available to New. It is called from the init
// function of each backend package.
func Register(name string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = c
}

// Providers lists the registered backend names.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the backend named by cfg.Provider.
func New(cfg Config) (Oracle, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider %q (registered: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	o, err := c(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s oracle: %w", name, err)
	}
	if cfg.Debug && cfg.Logger != nil {
		o = WithDebugLogging(o, cfg.Logger)
	}
	return o, nil
}
