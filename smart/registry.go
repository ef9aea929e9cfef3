package smart

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoTransport reports that no registered factory matches a URL.
var ErrNoTransport = errors.New("no transport registered for URL")

// Registry maps URL prefixes to transport factories. The zero value
// is ready to use and safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Register binds factory to URLs starting with prefix. The first
// registration for a prefix wins; later ones are silently ignored so
// that a default can be installed without clobbering user overrides.
func (r *Registry) Register(prefix string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}

	if _, ok := r.factories[prefix]; ok {
		return
	}
	r.factories[prefix] = factory
}

// Resolve returns the factory whose prefix is the longest one matching
// url, or [ErrNoTransport] if none matches.
func (r *Registry) Resolve(url string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best    Factory
		bestLen = -1
	)
	for prefix, factory := range r.factories {
		if strings.HasPrefix(url, prefix) && len(prefix) > bestLen {
			best, bestLen = factory, len(prefix)
		}
	}

	if best == nil {
		return nil, errors.Wrap(ErrNoTransport, url)
	}
	return best, nil
}

// DefaultRegistry is the registry used by the package-level
// [Register] and [Resolve].
var DefaultRegistry = new(Registry)

// Register binds factory to prefix in [DefaultRegistry].
func Register(prefix string, factory Factory) {
	DefaultRegistry.Register(prefix, factory)
}

// Resolve looks up url in [DefaultRegistry].
func Resolve(url string) (Factory, error) {
	return DefaultRegistry.Resolve(url)
}
