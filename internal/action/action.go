// Package action implements the action runner, spec.md §4.K: recursively
// invoking an engine action across a resolved dependency tree, with an
// optional license-confirmation gate on install.
//
// Grounded on cmd/yacm/main.go's runSnapshot — parse, resolve, confirm,
// execute, report — generalized from a single linear pipeline to the
// spec's recursive per-package walk over flat_dependencies.
package action

import (
	"context"
	"fmt"
	"sort"

	"github.com/github/go-spdx/v2/spdxexp"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/host"
	"github.com/uppm-dev/uppm/internal/meta"
	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/resolver"
	"github.com/uppm-dev/uppm/internal/targetapp"
	"github.com/uppm-dev/uppm/internal/uerrors"
	"github.com/uppm-dev/uppm/internal/ulog"
)

// assetFetcher is the capability internal/host.Context provides beyond the
// bare engine.HostContext interface: a host that can pull a package's
// metadata-declared assets (pre-built binaries, say, rather than something
// the engine's action builds from source) into its pack folder before an
// install action runs. Declared locally so action doesn't require every
// HostContext implementation to support it.
type assetFetcher interface {
	FetchAssets(ctx context.Context, assets []host.Asset) []host.FetchResult
}

// assetsFromMetadata reads the optional "assets" object a package's header
// metadata may declare: a map of destination name to source URL.
func assetsFromMetadata(m *meta.Package) []host.Asset {
	raw, ok := m.MetadataObject["assets"].(map[string]interface{})
	if !ok {
		return nil
	}
	assets := make([]host.Asset, 0, len(raw))
	for name, v := range raw {
		url, ok := v.(string)
		if !ok {
			continue
		}
		assets = append(assets, host.Asset{Name: name, URL: url})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets
}

// Runner holds the collaborators spec.md §4.K's run_action needs: the
// target-app registry to validate meta.target_app against, a resolver to
// build the dependency tree on demand, the host object engines run
// against, and the same unattended-confirm pattern internal/resolver uses.
type Runner struct {
	Apps     *targetapp.Registry
	Resolver *resolver.Resolver
	Host     engine.HostContext
	Confirm  resolver.Confirm

	Unattended    bool
	DefaultAnswer bool
}

func (r *Runner) ask(prompt string) bool {
	if r.Unattended || r.Confirm == nil {
		ulog.Warnf("unattended mode: defaulting %q to %v", prompt, r.DefaultAnswer)
		return r.DefaultAnswer
	}
	return r.Confirm(prompt)
}

// Run implements spec.md §4.K's run_action.
func (r *Runner) Run(ctx context.Context, p *pkg.Package, action string, recursive, confirmLicense bool) error {
	return r.run(ctx, p, action, recursive, confirmLicense, make(map[string]bool))
}

// run carries a visited set through the recursion: flat_dependencies is the
// same map on every node sharing a root, so without deduplication a cycle
// (or even a diamond) re-walks forever. The set is keyed by package name, so
// a flattened copy of the root itself (a cycle back to the root) runs once.
// Grounded on runSnapshot's own "deduplicate distributions by pathname" step
// before emitting a snapshot.
func (r *Runner) run(ctx context.Context, p *pkg.Package, action string, recursive, confirmLicense bool, visited map[string]bool) error {
	const op = "action.Run"

	key := pkg.NameKey(p.Meta.Name)
	if visited[key] {
		return nil
	}
	visited[key] = true

	if _, ok := r.Apps.Get(p.Meta.TargetApp); !ok {
		return uerrors.New(uerrors.UnknownTargetApp, op)
	}

	if p.Depth == 0 && recursive {
		if len(p.Root.FlatDependencies) == 0 && r.Resolver != nil {
			r.Resolver.Resolve(p.Root)
		}
		if action == "install" && confirmLicense {
			if !r.confirmLicenses(p) {
				return uerrors.New(uerrors.ActionFailed, op)
			}
		}
	}

	for _, dep := range p.Root.FlatDependencies {
		if dep == p {
			continue
		}
		if err := r.run(ctx, dep, action, true, confirmLicense, visited); err != nil {
			return uerrors.Wrap(uerrors.ActionFailed, op, fmt.Errorf("dependency %s: %w", dep.Meta.Self.String(), err))
		}
	}

	if action == "install" {
		if err := r.fetchDeclaredAssets(ctx, p); err != nil {
			return uerrors.Wrap(uerrors.ActionFailed, op, fmt.Errorf("fetching assets for %s: %w", p.Meta.Self.String(), err))
		}
	}

	return p.Engine.RunAction(r.Host, *p.Meta, action)
}

// fetchDeclaredAssets pulls any assets p's header metadata declares (an
// "assets" object mapping destination name to source URL) into the host's
// pack folder before the install action runs, so an engine action can rely
// on them already being on disk. A no-op if the host doesn't implement
// assetFetcher or the package declares no assets.
func (r *Runner) fetchDeclaredAssets(ctx context.Context, p *pkg.Package) error {
	fetcher, ok := r.Host.(assetFetcher)
	if !ok {
		return nil
	}
	assets := assetsFromMetadata(p.Meta)
	if len(assets) == 0 {
		return nil
	}
	for _, res := range fetcher.FetchAssets(ctx, assets) {
		if res.Error != nil {
			return fmt.Errorf("%s: %w", res.Asset.Name, res.Error)
		}
	}
	return nil
}

// confirmLicenses implements the display-and-confirm half of spec.md
// §4.K step 2: every license in the tree, root included and sorted by
// package name, shown together so the user confirms once for the whole
// install.
func (r *Runner) confirmLicenses(root *pkg.Package) bool {
	type entry struct {
		name    string
		license string
	}
	seen := map[string]bool{root.Meta.Name: true}
	entries := []entry{{root.Meta.Name, root.Meta.License}}
	for _, dep := range root.FlatDependencies {
		if seen[dep.Meta.Name] {
			continue
		}
		seen[dep.Meta.Name] = true
		entries = append(entries, entry{dep.Meta.Name, dep.Meta.License})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	fmt.Println("This install requires agreeing to the following licenses:")
	for _, e := range entries {
		license := e.license
		if license == "" {
			license = "unspecified"
		} else if valid, err := spdxexp.ValidateLicenses([]string{license}); err != nil || !valid {
			ulog.With("package", e.name).Warnf("license %q is not a recognized SPDX expression", license)
		}
		fmt.Printf("  %-24s %s\n", e.name, license)
	}

	return r.ask("accept the licenses above and continue?")
}
