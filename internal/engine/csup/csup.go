// Package csup wires up the "csup" script engine: C#-like scripts whose
// header comment is bracketed by /* ... */, per spec.md §6.
package csup

import (
	"regexp"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/metaextract"
)

var importDirective = regexp.MustCompile(`#load\s+"([^"]+)"`)

// New constructs the csup engine bound to runtime.
func New(runtime engine.Runtime) *engine.Engine {
	return engine.New(
		"csup",
		metaextract.Header{Open: "/*", Close: "*/"},
		importDirective,
		true, // allow_system_association
		runtime,
	)
}
