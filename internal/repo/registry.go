package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/uerrors"
)

// Factory probes url and, if it recognizes the shape and the remote/local
// target actually exists, constructs a Repository for it.
type Factory func(url string, engines *engine.Registry) (Repository, bool)

// Registry is the repository registry from spec.md §4.F: three URL-keyed
// maps (default, present, known-type factories) plus a §4.F.GetOrCreate
// probing algorithm. Per-registry circuit breaking during probing is
// grounded on git-pkgs-registries/fetch/circuit_breaker.go's
// CircuitBreakerFetcher, which wraps repeated upstream calls the same way.
type Registry struct {
	engines *engine.Registry

	mu        sync.RWMutex
	defaults  map[string]Repository
	present   map[string]Repository
	factories []Factory
	breakers  map[string]*circuit.Breaker
}

// NewRegistry constructs an empty repository registry.
func NewRegistry(engines *engine.Registry) *Registry {
	return &Registry{
		engines:  engines,
		defaults: make(map[string]Repository),
		present:  make(map[string]Repository),
		breakers: make(map[string]*circuit.Breaker),
	}
}

// RegisterFactory adds a known repository-type probe, tried in registration
// order by GetOrCreate when a URL isn't already known.
func (r *Registry) RegisterFactory(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, f)
}

// AddDefault registers repo as one of the default repositories consulted
// when a partial reference carries no repository_url.
func (r *Registry) AddDefault(url string, repo Repository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[url] = repo
	r.present[url] = repo
}

// RemoveDefault drops url from the default set (but leaves it in present,
// per spec.md §4.H's set_current semantics — a repository stops being a
// default without being forgotten).
func (r *Registry) RemoveDefault(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defaults, url)
}

// Defaults returns the currently registered default repositories.
func (r *Registry) Defaults() []Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Repository, 0, len(r.defaults))
	for _, repo := range r.defaults {
		out = append(out, repo)
	}
	return out
}

func (r *Registry) breakerFor(url string) *circuit.Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[url]; ok {
		return b
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Second
	policy.MaxInterval = 2 * time.Minute
	b := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    policy,
		ShouldTrip: circuit.ThresholdTripFunc(3),
	})
	r.breakers[url] = b
	return b
}

// GetOrCreate implements spec.md §4.F: return the repository already known
// for url, or probe every registered factory (all behind one circuit breaker
// per URL, so a repeatedly-unreachable repository stops being reprobed on
// every reference) until one recognizes and confirms the URL.
func (r *Registry) GetOrCreate(ctx context.Context, url string) (Repository, error) {
	r.mu.RLock()
	if repo, ok := r.defaults[url]; ok {
		r.mu.RUnlock()
		return repo, nil
	}
	if repo, ok := r.present[url]; ok {
		r.mu.RUnlock()
		return repo, nil
	}
	factories := append([]Factory(nil), r.factories...)
	r.mu.RUnlock()

	breaker := r.breakerFor(url)
	if !breaker.Ready() {
		return nil, uerrors.New(uerrors.RepositoryNotFound, fmt.Sprintf("repository %q is circuit-broken after repeated failures", url))
	}

	var found Repository
	err := breaker.Call(func() error {
		for _, factory := range factories {
			repo, ok := factory(url, r.engines)
			if !ok {
				continue
			}
			if !repo.Exists(ctx) {
				continue
			}
			repo.Refresh(ctx)
			found = repo
			return nil
		}
		return uerrors.New(uerrors.RepositoryNotFound, fmt.Sprintf("no known repository type recognizes %q", url))
	}, 0)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.present[url] = found
	r.mu.Unlock()
	return found, nil
}

// TryGetPackageTextFromDefaults implements the fallback described in
// spec.md §4.F: when a partial reference carries no repository_url, probe
// every default repository's TryGetPackageText until one answers.
func (r *Registry) TryGetPackageTextFromDefaults(c ref.Complete) (string, bool) {
	for _, repo := range r.Defaults() {
		if text, ok := repo.TryGetPackageText(c); ok {
			return text, true
		}
	}
	return "", false
}

// TryInferReferenceFromDefaults mirrors TryGetPackageTextFromDefaults for
// reference inference (§4.G) when p carries no repository_url.
func (r *Registry) TryInferReferenceFromDefaults(p ref.Partial) (ref.Complete, bool) {
	for _, repo := range r.Defaults() {
		if c, ok := repo.TryInferReference(p); ok {
			return c, true
		}
	}
	return ref.Complete{}, false
}
