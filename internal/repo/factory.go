package repo

import (
	"github.com/uppm-dev/uppm/internal/engine"
)

// FilesystemFactory recognizes filesystem repository URLs and constructs a
// FilesystemRepository, per spec.md §4.F's known-types probing.
func FilesystemFactory(url string, engines *engine.Registry) (Repository, bool) {
	if !LooksLikeFilesystem(url) {
		return nil, false
	}
	return NewFilesystemRepository(url, url, engines), true
}

// GitFactory recognizes remote-Git repository URLs and constructs a
// GitRepository checked out under checkoutBase.
func GitFactory(checkoutBase string) Factory {
	return func(url string, engines *engine.Registry) (Repository, bool) {
		if !LooksLikeGitRemote(url) {
			return nil, false
		}
		folder := CheckoutFolderFor(checkoutBase, url)
		return NewGitRepository(url, folder, CredentialPolicy{}, engines), true
	}
}
