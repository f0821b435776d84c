// Package host implements the FS/VCS helper object passed to script
// engines when an action runs, spec.md §4.L's host object.
//
// Grounded on the teacher's internal/downloader.Downloader: Downloader
// scoped a cache directory to one root via CachePath(pathname); Context
// generalizes that into scoping file operations to one target app's pack
// folder for a package's effective scope, and adds a VCS passthrough for
// engines whose install action needs to call back into the originating
// Git repository.
package host

import (
	"os"
	"path/filepath"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/repo"
	"github.com/uppm-dev/uppm/internal/targetapp"
	"github.com/uppm-dev/uppm/internal/ulog"
)

var _ engine.HostContext = (*Context)(nil)

// Context implements engine.HostContext and the broader host-object
// contract spec.md §4.L describes: file access scoped under the target
// app's pack folder for the package's effective scope, a handle back to
// the originating repository, and a temp directory for script imports.
type Context struct {
	App        *targetapp.TargetApp
	Scope      pkg.Scope
	Source     repo.Repository
	PackageRef string
	Temp       string
}

// packFolder returns the pack folder file operations are scoped under,
// picking the target app's global or local folder by effective scope.
func (c *Context) packFolder() string {
	if c.Scope == pkg.Global {
		return c.App.GlobalPacksFolder
	}
	return c.App.LocalPacksFolder
}

// resolve joins name onto the pack folder after cleaning it against a
// synthetic root, so a name containing ".." can never escape the folder:
// filepath.Clean("/"+name) resolves any ".." against "/" and always
// returns an absolute, dot-free path.
func (c *Context) resolve(name string) string {
	return filepath.Join(c.packFolder(), filepath.Clean("/"+name))
}

// ReadFile reads name relative to the pack folder.
func (c *Context) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(c.resolve(name))
}

// WriteFile writes name relative to the pack folder, creating parent
// directories as needed.
func (c *Context) WriteFile(name string, data []byte, perm os.FileMode) error {
	path := c.resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// MkdirAll creates name (and parents) relative to the pack folder.
func (c *Context) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(c.resolve(name), perm)
}

// Remove removes name relative to the pack folder.
func (c *Context) Remove(name string) error {
	return os.RemoveAll(c.resolve(name))
}

// Repository returns the repository the running package came from, so an
// engine's install action can call back into VCS helpers.
func (c *Context) Repository() repo.Repository { return c.Source }

// TempDir implements engine.HostContext.
func (c *Context) TempDir() string { return c.Temp }

// Log implements engine.HostContext, tagging every line with the package
// reference the action is running for.
func (c *Context) Log(format string, args ...interface{}) {
	ulog.With("package", c.PackageRef).Infof(format, args...)
}
