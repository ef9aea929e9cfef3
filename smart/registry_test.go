package smart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryReturning(t *Transport) Factory {
	return func(Remote) (*Transport, error) { return t, nil }
}

func TestRegistryFirstRegistrationWins(t *testing.T) {
	var reg Registry

	first := new(Transport)
	second := new(Transport)

	reg.Register("http://", factoryReturning(first))
	reg.Register("http://", factoryReturning(second))

	factory, err := reg.Resolve("http://example.com/repo.git")
	require.NoError(t, err)

	got, err := factory(nil)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	var reg Registry

	generic := new(Transport)
	specific := new(Transport)

	reg.Register("http://", factoryReturning(generic))
	reg.Register("http://internal.", factoryReturning(specific))

	factory, err := reg.Resolve("http://internal.example.com/repo.git")
	require.NoError(t, err)

	got, err := factory(nil)
	require.NoError(t, err)
	assert.Same(t, specific, got)
}

func TestRegistryResolveUnknownScheme(t *testing.T) {
	var reg Registry
	reg.Register("http://", factoryReturning(new(Transport)))

	_, err := reg.Resolve("ssh://example.com/repo.git")
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestRegistryConcurrentRegister(t *testing.T) {
	var reg Registry

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Register("http://", factoryReturning(new(Transport)))
			_, _ = reg.Resolve("http://example.com")
		}()
	}
	wg.Wait()

	_, err := reg.Resolve("http://example.com")
	assert.NoError(t, err)
}
