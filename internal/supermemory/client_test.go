package supermemory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopProvider struct{}

func (nopProvider) Add(_ context.Context, _, _ string) error { return nil }
func (nopProvider) Search(_ context.Context, _, _ string, _ int) ([]Result, error) {
	return nil, nil
}
func (nopProvider) Profile(_ context.Context, _, _ string) (Profile, error) {
	return Profile{}, nil
}

func TestClientInitializesOnce(t *testing.T) {
	calls := 0
	client := NewClient(func() (Provider, error) {
		calls++
		return nopProvider{}, nil
	}, newTestLogger())

	_, ok := client.Get()
	assert.True(t, ok)
	_, ok = client.Get()
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestClientCachesTerminalFailure(t *testing.T) {
	calls := 0
	client := NewClient(func() (Provider, error) {
		calls++
		return nil, fmt.Errorf("%w: API key not configured", ErrUnavailable)
	}, newTestLogger())

	_, ok := client.Get()
	assert.False(t, ok)
	_, ok = client.Get()
	assert.False(t, ok)
	assert.Equal(t, 1, calls, "terminal failures must not be retried")
}

func TestClientRetriesTransientFailure(t *testing.T) {
	calls := 0
	client := NewClient(func() (Provider, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return nopProvider{}, nil
	}, newTestLogger())

	_, ok := client.Get()
	assert.False(t, ok)

	_, ok = client.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestClientNilFactoryIsDisabled(t *testing.T) {
	client := NewClient(nil, newTestLogger())

	_, ok := client.Get()
	assert.False(t, ok)
	assert.False(t, client.Enabled())
}

func TestClientWithProvider(t *testing.T) {
	client := NewClientWithProvider(nopProvider{}, newTestLogger())

	provider, ok := client.Get()
	assert.True(t, ok)
	assert.NotNil(t, provider)
}
