package repo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	backoff "github.com/cenk/backoff"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/rs/dnscache"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
)

// ForceResync is the process-wide flag from spec.md §4.E: when false, each
// Git repository is fetched at most once per process lifetime.
var ForceResync = false

var dnsResolver = &dnscache.Resolver{}

// httpClientWithDNSCache returns an *http.Client whose dialer resolves
// through dnsResolver, the same caching dialer shape as
// git-pkgs-registries/fetch/fetcher.go's NewFetcher, reused here for the
// repeated HTTP HEAD probes Exists performs against Git remotes.
func httpClientWithDNSCache() *http.Client {
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := dnsResolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, err
			},
		},
	}
}

// CredentialPolicy supplies authentication and TLS behavior for a Git
// remote, generalized from
// invowk-invowk/pkg/invkpack/git.go's GitFetcher.setupAuth (SSH key
// discovery, then HTTPS bearer tokens from environment variables).
type CredentialPolicy struct {
	Auth                  transport.AuthMethod
	CustomHeaders         map[string]string
	InsecureSkipTLSVerify bool
}

// GitRepository is the remote-Git Repository backend, per spec.md §4.E's
// "Git variant". Clone/fetch/checkout is grounded on
// invowk-invowk/pkg/invkpack/git.go's GitFetcher, which wraps go-git v5 the
// same way: PlainOpen-or-clone, then FetchContext, then Worktree.Checkout.
type GitRepository struct {
	url                 string
	localCheckoutFolder string
	credentials         CredentialPolicy
	engines             *engine.Registry
	httpClient          *http.Client

	fetchedOnce     bool
	remoteReachable bool
	synchronized    bool
	ready           bool
	lastErr         error
	catalog         []CatalogEntry
}

// NewGitRepository constructs a Git-backed repository. localCheckoutFolder
// should be derived from the URL's host+path (see CheckoutFolderFor).
func NewGitRepository(url, localCheckoutFolder string, creds CredentialPolicy, engines *engine.Registry) *GitRepository {
	return &GitRepository{
		url:                 url,
		localCheckoutFolder: localCheckoutFolder,
		credentials:         creds,
		engines:             engines,
		httpClient:          httpClientWithDNSCache(),
	}
}

// CheckoutFolderFor derives a stable local checkout directory from a Git
// URL's host+path, under baseDir.
func CheckoutFolderFor(baseDir, gitURL string) string {
	u, err := url.Parse(gitURL)
	if err != nil {
		sum := sha1.Sum([]byte(gitURL))
		return filepath.Join(baseDir, hex.EncodeToString(sum[:]))
	}
	sum := sha1.Sum([]byte(u.Host + u.Path))
	return filepath.Join(baseDir, u.Host, hex.EncodeToString(sum[:8]))
}

func (r *GitRepository) URL() string { return r.url }

func (r *GitRepository) ReferenceSyntacticallyValid() bool {
	return LooksLikeGitRemote(r.url)
}

// Exists performs an active HTTP HEAD probe, per spec.md §4.E.
func (r *GitRepository) Exists(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return false
	}
	for k, v := range r.credentials.CustomHeaders {
		req.Header.Set(k, v)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.remoteReachable = false
		return false
	}
	defer resp.Body.Close()
	r.remoteReachable = resp.StatusCode == http.StatusOK
	return r.remoteReachable
}

func (r *GitRepository) Ready() bool             { return r.ready }
func (r *GitRepository) LastRefreshError() error { return r.lastErr }
func (r *GitRepository) Catalog() []CatalogEntry { return r.catalog }

// Refresh clones (first time) or fetches+checks-out "master" (subsequent
// times, at most once per process lifetime unless ForceResync is set), then
// walks the checkout the same way the filesystem backend does, per
// spec.md §4.E's "Git catalog build".
func (r *GitRepository) Refresh(ctx context.Context) bool {
	if r.fetchedOnce && !ForceResync {
		if !r.synchronized {
			r.ready = false
			return false
		}
		return r.walk()
	}

	if err := r.syncCheckout(ctx); err != nil {
		r.ready = false
		r.lastErr = err
		r.synchronized = false
		logRefreshFailure(r.url, err)
		return false
	}
	r.fetchedOnce = true
	r.synchronized = true
	return r.walk()
}

func (r *GitRepository) syncCheckout(ctx context.Context) error {
	var repository *gogit.Repository
	operation := func() error {
		var err error
		repository, err = gogit.PlainOpen(r.localCheckoutFolder)
		if err == gogit.ErrRepositoryNotExists {
			if mkErr := os.MkdirAll(filepath.Dir(r.localCheckoutFolder), 0o755); mkErr != nil {
				return mkErr
			}
			repository, err = gogit.PlainCloneContext(ctx, r.localCheckoutFolder, false, &gogit.CloneOptions{
				URL:  r.url,
				Auth: r.credentials.Auth,
			})
			return err
		}
		if err != nil {
			return err
		}
		fetchErr := repository.FetchContext(ctx, &gogit.FetchOptions{
			Auth:  r.credentials.Auth,
			Force: true,
		})
		if fetchErr != nil && fetchErr != gogit.NoErrAlreadyUpToDate {
			return fetchErr
		}
		return nil
	}

	// Clone/fetch retries with exponential backoff, grounded on
	// git-pkgs-registries/fetch/circuit_breaker.go's use of
	// github.com/cenk/backoff for upstream retries.
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 1 * time.Minute
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return err
	}
	return worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
		Force:  true,
	})
}

func (r *GitRepository) walk() bool {
	var entries []CatalogEntry
	err := filepath.Walk(r.localCheckoutFolder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(r.localCheckoutFolder, path)
		if err != nil {
			return nil
		}
		if entry, ok := walkLeaf(r.url, rel, r.engines); ok {
			entry.Path = path
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		r.ready = false
		r.lastErr = err
		logRefreshFailure(r.url, err)
		return false
	}
	r.catalog = entries
	r.ready = true
	r.lastErr = nil
	return true
}

func (r *GitRepository) TryGetPackageText(c ref.Complete) (string, bool) {
	for _, e := range r.catalog {
		if e.Ref.EqualComplete(c) {
			data, err := os.ReadFile(e.Path)
			if err != nil {
				return "", false
			}
			return string(data), true
		}
	}
	return "", false
}

func (r *GitRepository) TryGetScriptEngine(c ref.Complete, engines *engine.Registry) (*engine.Engine, bool) {
	for _, e := range r.catalog {
		if e.Ref.EqualComplete(c) {
			return engines.Lookup(e.Extension)
		}
	}
	return nil, false
}

func (r *GitRepository) TryInferReference(p ref.Partial) (ref.Complete, bool) {
	return InferReference(r.catalog, r.url, p)
}
