package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Action != "install" {
		t.Fatalf("expected default action, got %q", cfg.Action)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uppm.yaml")
	content := "target_app: t\naction: remove\nunattended: true\nrepositories:\n  - url: https://example.com/repo.git\n    kind: git\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Action != "remove" || cfg.TargetAppShortName != "t" || !cfg.Unattended {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Repositories) != 1 || cfg.Repositories[0].URL != "https://example.com/repo.git" {
		t.Fatalf("unexpected repositories: %+v", cfg.Repositories)
	}
	if cfg.TemporaryFolder != os.TempDir() {
		t.Fatalf("expected untouched default temp folder, got %q", cfg.TemporaryFolder)
	}
}
