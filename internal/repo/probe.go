package repo

import "regexp"

// Repository URL recognition, per spec.md §6.
var (
	gitRemoteRe  = regexp.MustCompile(`^https?://.*?\.git([?:]|$)`)
	fsAbsoluteRe = regexp.MustCompile(`^(\\\\|//|[A-Za-z]:[\\/])`)
	fsRelativeRe = regexp.MustCompile(`^(\.\.?|[\\/])`)
)

// LooksLikeGitRemote reports whether url matches the remote-Git shape.
func LooksLikeGitRemote(url string) bool { return gitRemoteRe.MatchString(url) }

// LooksLikeFilesystem reports whether url matches either the absolute or
// relative filesystem shape.
func LooksLikeFilesystem(url string) bool {
	return fsAbsoluteRe.MatchString(url) || fsRelativeRe.MatchString(url)
}
