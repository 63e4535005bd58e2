package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "pystudio" {
		t.Errorf("Use = %q", root.Use)
	}

	want := []string{"audit", "install", "check", "run", "env", "serve", "cache", "completion"}
	have := make(map[string]bool)
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestCacheDir(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		os.Unsetenv("XDG_CACHE_HOME")

		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		home, _ := os.UserHomeDir()
		if dir != filepath.Join(home, ".cache", appName) {
			t.Errorf("cacheDir() = %q", dir)
		}
	})

	t.Run("xdg override", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if dir != filepath.Join("/tmp/xdg", appName) {
			t.Errorf("cacheDir() = %q", dir)
		}
	})
}

func TestNewSnapshotCache(t *testing.T) {
	// noCache always yields a null cache, regardless of environment.
	c := newSnapshotCache(true)
	if c == nil {
		t.Fatal("nil cache")
	}

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	if c := newSnapshotCache(false); c == nil {
		t.Fatal("nil file cache")
	}
}

func TestCheckCommandReportsProblems(t *testing.T) {
	project := t.TempDir()
	script := filepath.Join(project, "bad.py")
	if err := os.WriteFile(script, []byte("def f(:\n    pass"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"check", "--project", project, "bad.py"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "structural problem") {
		t.Errorf("Execute() = %v, want structural problem error", err)
	}
}
