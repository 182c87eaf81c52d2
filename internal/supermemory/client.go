package supermemory

import (
	"errors"
	"sync"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

type clientState int

const (
	stateUnknown clientState = iota
	stateReady
	stateDisabled
)

// Factory constructs the underlying provider. Returning an error wrapping
// ErrUnavailable marks the client permanently disabled (feature flag off,
// API key absent); any other error is treated as transient and the
// construction is retried on the next call.
type Factory func() (Provider, error)

// Client is the process-wide handle to the memory provider. It is
// constructed once by the composition root and passed by reference to every
// component that needs it; the underlying provider is initialized lazily on
// first use behind a synchronized check-once guard.
type Client struct {
	factory Factory
	log     logger.Logger

	mu       sync.Mutex
	state    clientState
	provider Provider
}

// NewClient creates a client around the given provider factory. A nil
// factory yields a permanently unavailable client.
func NewClient(factory Factory, log logger.Logger) *Client {
	return &Client{
		factory: factory,
		log:     log,
	}
}

// NewClientWithProvider creates an already-initialized client. Used in tests
// and when the provider is constructed eagerly at startup.
func NewClientWithProvider(provider Provider, log logger.Logger) *Client {
	return &Client{
		log:      log,
		state:    stateReady,
		provider: provider,
	}
}

// Get returns the provider handle, initializing it on first call. The
// second return value is false when the memory subsystem is absent; callers
// must degrade to a no-op or empty result, never surface an error.
func (c *Client) Get() (Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateReady:
		return c.provider, true
	case stateDisabled:
		return nil, false
	}

	if c.factory == nil {
		c.log.Info("Memory provider disabled")
		c.state = stateDisabled
		return nil, false
	}

	provider, err := c.factory()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			// Terminal: do not retry on subsequent calls.
			c.log.Warn("Memory provider disabled", logger.ErrorField(err))
			c.state = stateDisabled
			return nil, false
		}
		// Transient construction failure, retried on next call.
		c.log.Warn("Memory provider initialization failed", logger.ErrorField(err))
		return nil, false
	}

	c.log.Info("Memory provider initialized")
	c.state = stateReady
	c.provider = provider
	return provider, true
}

// Enabled reports whether the memory subsystem is currently usable.
func (c *Client) Enabled() bool {
	_, ok := c.Get()
	return ok
}
