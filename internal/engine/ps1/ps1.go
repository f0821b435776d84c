// Package ps1 wires up the "ps1" script engine: shell-like scripts whose
// header comment is bracketed by <# ... #>, per spec.md §6.
package ps1

import (
	"regexp"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/metaextract"
)

var importDirective = regexp.MustCompile(`#load\s+"([^"]+)"`)

// New constructs the ps1 engine bound to runtime.
func New(runtime engine.Runtime) *engine.Engine {
	return engine.New(
		"ps1",
		metaextract.Header{Open: "<#", Close: "#>"},
		importDirective,
		false, // allow_system_association
		runtime,
	)
}
