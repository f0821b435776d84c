// Command uppm is the CLI entry point wiring command-line arguments into
// a call to the action runner, spec.md §6's "Environment and CLI" —
// explicitly out of scope for the core, kept thin here the way
// cmd/yacm/main.go kept its cobra wiring thin around runSnapshot.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uppm-dev/uppm/internal/action"
	"github.com/uppm-dev/uppm/internal/config"
	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/engine/csup"
	"github.com/uppm-dev/uppm/internal/engine/ps1"
	"github.com/uppm-dev/uppm/internal/host"
	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/pkgload"
	"github.com/uppm-dev/uppm/internal/plan"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/repo"
	"github.com/uppm-dev/uppm/internal/resolver"
	"github.com/uppm-dev/uppm/internal/targetapp"
	"github.com/uppm-dev/uppm/internal/ulog"
	"github.com/uppm-dev/uppm/internal/version"
)

var (
	configPath     string
	targetAppFlag  string
	unattendedFlag bool
	continueFlag   bool
	recursiveFlag  bool
	confirmFlag    bool
	planPath       string
	verbose        bool

	coreVersion = version.Version{Major: 1}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "uppm",
		Short: "uppm runs a script-engine action against a package and its dependencies",
		Long:  "uppm resolves a package's dependency tree against a decentralized set of repositories and runs an install/remove/update action across it.",
	}

	runCmd := &cobra.Command{
		Use:   "run <action> <reference>",
		Short: "Resolve a package's dependencies and run an action across the tree",
		Args:  cobra.ExactArgs(2),
		RunE:  runAction,
	}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to an uppm.yaml config file")
	runCmd.Flags().StringVarP(&targetAppFlag, "target-app", "t", "", "Short name of the target app to install for")
	runCmd.Flags().BoolVar(&unattendedFlag, "unattended", false, "Never prompt; use default answers")
	runCmd.Flags().BoolVar(&continueFlag, "continue-on-error", false, "Keep going after a dependency fails")
	runCmd.Flags().BoolVar(&recursiveFlag, "recursive", true, "Build and run across the full dependency tree")
	runCmd.Flags().BoolVar(&confirmFlag, "confirm-license", true, "Require license confirmation before install")
	runCmd.Flags().StringVar(&planPath, "plan-out", "", "Write the resolved install plan as YAML to this path")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAction(cmd *cobra.Command, args []string) error {
	ulog.SetVerbose(verbose)
	actionName, referenceArg := args[0], args[1]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if targetAppFlag != "" {
		cfg.TargetAppShortName = targetAppFlag
	}
	if cmd.Flags().Changed("unattended") {
		cfg.Unattended = unattendedFlag
	}
	if cmd.Flags().Changed("continue-on-error") {
		cfg.ContinueOnError = continueFlag
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = recursiveFlag
	}
	if cmd.Flags().Changed("confirm-license") {
		cfg.ConfirmLicense = confirmFlag
	}
	cfg.Action = actionName
	cfg.Reference = referenceArg

	engines := engine.NewRegistry()
	engines.Register(csup.New(&engine.NullRuntime{}))
	engines.Register(ps1.New(&engine.NullRuntime{}))

	repos := repo.NewRegistry(engines)
	repos.RegisterFactory(repo.GitFactory(checkoutBaseDir()))
	repos.RegisterFactory(repo.FilesystemFactory)
	for _, r := range cfg.Repositories {
		repository, err := repos.GetOrCreate(cmd.Context(), r.URL)
		if err != nil {
			return fmt.Errorf("registering repository %q: %w", r.URL, err)
		}
		repos.AddDefault(r.URL, repository)
	}

	apps := targetapp.NewRegistry(repos)
	for _, a := range cfg.TargetApps {
		apps.Register(&targetapp.TargetApp{
			ShortName:         a.ShortName,
			Architecture:      a.Architecture,
			AppFolder:         a.AppFolder,
			GlobalPacksFolder: a.GlobalPacksFolder,
			LocalPacksFolder:  a.LocalPacksFolder,
			Executable:        a.Executable,
		})
	}
	if cfg.TargetAppShortName != "" {
		if err := apps.SetCurrent(cfg.TargetAppShortName); err != nil {
			return fmt.Errorf("setting current target app: %w", err)
		}
	}

	loader := pkgload.New(engines, coreVersion)

	partial, err := ref.ParsePartial(cfg.Reference)
	if err != nil {
		return fmt.Errorf("parsing reference %q: %w", cfg.Reference, err)
	}

	var repository repo.Repository
	if url := partial.RepositoryURL(); url != "" {
		repository, err = repos.GetOrCreate(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("resolving repository for %q: %w", cfg.Reference, err)
		}
	} else {
		for _, d := range repos.Defaults() {
			if _, ok := d.TryInferReference(partial); ok {
				repository = d
				break
			}
		}
		if repository == nil {
			return fmt.Errorf("no default repository resolves %q", cfg.Reference)
		}
	}

	loaded, err := loader.Load(repository, partial)
	if err != nil {
		return fmt.Errorf("loading %q: %w", cfg.Reference, err)
	}

	app, _ := apps.Current()
	scope := pkg.EffectiveScope(pkg.Local, loaded.Meta.ForceGlobal)
	root := pkg.NewRoot(loaded.Meta, loaded.Engine, scope)

	confirm := func(prompt string) bool { return promptYesNo(prompt) }

	res := &resolver.Resolver{
		Repos:         repos,
		Loader:        loader,
		TargetApp:     app,
		Confirm:       confirm,
		Unattended:    cfg.Unattended,
		DefaultAnswer: false,
	}
	res.Resolve(root)

	if planPath != "" {
		if err := writePlan(root, planPath); err != nil {
			return fmt.Errorf("writing plan: %w", err)
		}
	}

	var hostCtx engine.HostContext
	if app != nil {
		hostCtx = &host.Context{
			App:        app,
			Scope:      root.Scope,
			Source:     repository,
			PackageRef: root.Meta.Self.String(),
			Temp:       cfg.TemporaryFolder,
		}
	}

	runner := &action.Runner{
		Apps:          apps,
		Resolver:      res,
		Host:          hostCtx,
		Confirm:       confirm,
		Unattended:    cfg.Unattended,
		DefaultAnswer: false,
	}

	if err := runner.Run(cmd.Context(), root, cfg.Action, cfg.Recursive, cfg.ConfirmLicense); err != nil {
		return fmt.Errorf("running %s on %s: %w", cfg.Action, cfg.Reference, err)
	}

	fmt.Printf("%s: %s complete\n", root.Meta.Self.String(), cfg.Action)
	return nil
}

func writePlan(root *pkg.Package, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return plan.NewEmitter(f).Emit(plan.Build(root, nil))
}

func checkoutBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home + "/.uppm/repos"
}

func promptYesNo(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
