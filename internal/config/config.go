// Package config loads the caller-supplied run parameters spec.md §6
// leaves out of scope ("the collaborator wires command-line arguments
// into a call to the action runner"): an optional uppm.yaml file plus
// cobra flag overrides, same precedence idiom as the teacher's
// cmd/yacm/main.go (flags carry their own defaults, an explicit file
// value wins over nothing, and a flag the user actually set wins over
// the file).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RepositoryConfig is one entry of the repositories list a config file
// may pre-register, so uppm.yaml can name default repositories without
// a CLI flag per repository.
type RepositoryConfig struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // "git" or "filesystem"
}

// TargetAppConfig is one entry of the target_apps list a config file may
// pre-register, per spec.md §4.H's TargetApp record.
type TargetAppConfig struct {
	ShortName         string `yaml:"short_name"`
	Architecture      string `yaml:"architecture"`
	AppFolder         string `yaml:"app_folder"`
	GlobalPacksFolder string `yaml:"global_packs_folder"`
	LocalPacksFolder  string `yaml:"local_packs_folder"`
	Executable        string `yaml:"executable"`
}

// Config is the tuple spec.md §6 describes, plus the registration lists
// an out-of-scope CLI collaborator needs to populate the core's
// registries before calling the action runner.
type Config struct {
	TargetAppShortName string `yaml:"target_app"`
	Action             string `yaml:"action"`
	Reference          string `yaml:"reference"`
	Unattended         bool   `yaml:"unattended"`
	ContinueOnError    bool   `yaml:"continue_on_error"`
	TemporaryFolder    string `yaml:"temporary_folder"`
	Recursive          bool   `yaml:"recursive"`
	ConfirmLicense     bool   `yaml:"confirm_license"`

	Repositories []RepositoryConfig `yaml:"repositories"`
	TargetApps   []TargetAppConfig  `yaml:"target_apps"`
}

// Default returns a Config with the same defaults cmd/uppm's flags fall
// back to when neither a file nor a flag set them.
func Default() *Config {
	return &Config{
		Action:          "install",
		TemporaryFolder: os.TempDir(),
		Recursive:       true,
		ConfirmLicense:  true,
	}
}

// Load reads a YAML config file, if present. A missing file is not an
// error — it just means every value comes from flags and their own
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
