//go:build !windows

package pyenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pystudio/pystudio/pkg/cache"
	"github.com/pystudio/pystudio/pkg/errors"
)

// writeFakeEnv creates a directory layout that Detect recognizes: an env
// directory containing bin/python. The interpreter is a shell script so
// package-query tests can script its behavior.
func writeFakeEnv(t *testing.T, projectDir, name, interpreterScript string) string {
	t.Helper()
	binDir := filepath.Join(projectDir, name, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	interp := filepath.Join(binDir, "python")
	if err := os.WriteFile(interp, []byte(interpreterScript), 0o755); err != nil {
		t.Fatal(err)
	}
	return interp
}

const pipListScript = `#!/bin/sh
# Fake interpreter answering "-m pip list --format=json".
echo '[{"name": "NumPy", "version": "1.26.0"}, {"name": "requests", "version": "2.31.0"}]'
`

func TestDetect(t *testing.T) {
	m := NewManager()

	for _, name := range []string{"venv", "env", ".venv", ".env"} {
		t.Run(name, func(t *testing.T) {
			project := t.TempDir()
			interp := writeFakeEnv(t, project, name, "#!/bin/sh\n")

			env := m.Detect(project)
			if env == nil {
				t.Fatalf("Detect did not find %s layout", name)
			}
			if env.State() != StateReady {
				t.Errorf("State = %v, want %v", env.State(), StateReady)
			}
			if env.Interpreter != interp {
				t.Errorf("Interpreter = %v, want %v", env.Interpreter, interp)
			}
		})
	}
}

func TestDetectAbsent(t *testing.T) {
	m := NewManager()

	// Empty project: nothing to detect.
	if env := m.Detect(t.TempDir()); env != nil {
		t.Errorf("Detect(empty) = %+v, want nil", env)
	}

	// A venv directory without an interpreter is not an environment.
	project := t.TempDir()
	if err := os.MkdirAll(filepath.Join(project, "venv", "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if env := m.Detect(project); env != nil {
		t.Errorf("Detect(no interpreter) = %+v, want nil", env)
	}

	// A plain file named venv is not an environment.
	project = t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "venv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if env := m.Detect(project); env != nil {
		t.Errorf("Detect(file) = %+v, want nil", env)
	}
}

func TestDetectPreferenceOrder(t *testing.T) {
	project := t.TempDir()
	writeFakeEnv(t, project, "venv", "#!/bin/sh\n")
	writeFakeEnv(t, project, ".venv", "#!/bin/sh\n")

	env := NewManager().Detect(project)
	if env == nil {
		t.Fatal("Detect found nothing")
	}
	if filepath.Base(env.Path) != "venv" {
		t.Errorf("Detect chose %s, want venv (candidate order)", env.Path)
	}
}

func TestCreateRejectsOccupiedTarget(t *testing.T) {
	project := t.TempDir()
	target := filepath.Join(project, "venv")
	if err := os.MkdirAll(filepath.Join(target, "something"), 0o755); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	_, err := m.Create(context.Background(), project, "venv")
	if !errors.Is(err, errors.ErrCodeEnvCreation) {
		t.Errorf("Create on occupied target: error = %v, want %v", err, errors.ErrCodeEnvCreation)
	}
}

func TestCreateRejectsMissingBaseInterpreter(t *testing.T) {
	m := &Manager{BasePython: filepath.Join(t.TempDir(), "no-such-python")}
	_, err := m.Create(context.Background(), t.TempDir(), "venv")
	if !errors.Is(err, errors.ErrCodeEnvCreation) {
		t.Errorf("Create without base interpreter: error = %v, want %v", err, errors.ErrCodeEnvCreation)
	}
}

func TestCreateRejectsBadName(t *testing.T) {
	m := NewManager()
	for _, name := range []string{"", "a/b", ".."} {
		if _, err := m.Create(context.Background(), t.TempDir(), name); err == nil {
			t.Errorf("Create(%q) succeeded, want error", name)
		}
	}
}

func TestCreateBrokenOnSubprocessFailure(t *testing.T) {
	// A base "interpreter" that always fails stands in for a broken Python.
	base := filepath.Join(t.TempDir(), "python")
	if err := os.WriteFile(base, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	m := &Manager{BasePython: base}
	env, err := m.Create(context.Background(), t.TempDir(), "venv")
	if !errors.Is(err, errors.ErrCodeEnvCreation) {
		t.Fatalf("error = %v, want %v", err, errors.ErrCodeEnvCreation)
	}
	if env == nil {
		t.Fatal("expected partially-created environment for diagnosis")
	}
	if env.State() != StateBroken {
		t.Errorf("State = %v, want %v", env.State(), StateBroken)
	}
	if env.StateDetail() == "" {
		t.Error("StateDetail should carry the subprocess output")
	}
}

func TestValidate(t *testing.T) {
	project := t.TempDir()
	writeFakeEnv(t, project, "venv", "#!/bin/sh\n")

	m := NewManager()
	env := m.Detect(project)
	if err := m.Validate(env); err != nil {
		t.Errorf("Validate(ready env) = %v", err)
	}

	// Remove the interpreter out from under the environment.
	if err := os.Remove(env.Interpreter); err != nil {
		t.Fatal(err)
	}
	err := m.Validate(env)
	if !errors.Is(err, errors.ErrCodeEnvBroken) {
		t.Errorf("Validate(broken env) = %v, want %v", err, errors.ErrCodeEnvBroken)
	}
	if env.State() != StateBroken {
		t.Errorf("State = %v, want %v", env.State(), StateBroken)
	}

	if err := m.Validate(nil); !errors.Is(err, errors.ErrCodeEnvNotFound) {
		t.Errorf("Validate(nil) = %v, want %v", err, errors.ErrCodeEnvNotFound)
	}
}

func TestInstalledPackages(t *testing.T) {
	project := t.TempDir()
	writeFakeEnv(t, project, "venv", pipListScript)

	m := NewManager()
	env := m.Detect(project)

	snap, err := m.InstalledPackages(context.Background(), env)
	if err != nil {
		t.Fatalf("InstalledPackages: %v", err)
	}

	// Names are lowercased.
	if !snap.Has("numpy") {
		t.Error("snapshot should contain numpy")
	}
	if !snap.Has("NumPy") {
		t.Error("Has should match case-insensitively")
	}
	if v := snap.Version("requests"); v != "2.31.0" {
		t.Errorf("Version(requests) = %q, want 2.31.0", v)
	}
	if snap.Has("flask") {
		t.Error("snapshot should not contain flask")
	}
}

func TestInstalledPackagesSnapshotReuse(t *testing.T) {
	project := t.TempDir()
	interp := writeFakeEnv(t, project, "venv", pipListScript)

	m := NewManager()
	env := m.Detect(project)
	ctx := context.Background()

	if _, err := m.InstalledPackages(ctx, env); err != nil {
		t.Fatal(err)
	}

	// Break the interpreter; the cached snapshot must still serve reads.
	if err := os.WriteFile(interp, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	snap, err := m.InstalledPackages(ctx, env)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if !snap.Has("numpy") {
		t.Error("cached snapshot lost its contents")
	}

	// Invalidation forces a re-query, which now fails.
	env.InvalidatePackages()
	if _, err := m.InstalledPackages(ctx, env); err == nil {
		t.Error("expected error after invalidation with broken interpreter")
	}
}

func TestInstalledPackagesNotReady(t *testing.T) {
	m := NewManager()
	env := &Environment{Path: "/tmp/x", state: StateCreating}
	_, err := m.InstalledPackages(context.Background(), env)
	if !errors.Is(err, errors.ErrCodeEnvNotReady) {
		t.Errorf("error = %v, want %v", err, errors.ErrCodeEnvNotReady)
	}

	if _, err := m.InstalledPackages(context.Background(), nil); !errors.Is(err, errors.ErrCodeEnvNotFound) {
		t.Errorf("error = %v, want %v", err, errors.ErrCodeEnvNotFound)
	}
}

func TestInstalledPackagesPersistentCache(t *testing.T) {
	project := t.TempDir()
	writeFakeEnv(t, project, "venv", pipListScript)

	// Give the environment a site-packages directory so it has a
	// fingerprint for the persistent cache.
	env0 := NewManager().Detect(project)
	site := filepath.Join(env0.Path, "lib", "python3.12", "site-packages")
	if err := os.MkdirAll(site, 0o755); err != nil {
		t.Fatal(err)
	}

	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := &Manager{Cache: fileCache}
	ctx := context.Background()

	env := m.Detect(project)
	if _, err := m.InstalledPackages(ctx, env); err != nil {
		t.Fatal(err)
	}

	// A fresh Environment (new process, same env) with a dead interpreter
	// should still be answerable from the persistent cache.
	env2 := m.Detect(project)
	if err := os.WriteFile(env2.Interpreter, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	env2.InvalidatePackages()
	snap, err := m.InstalledPackages(ctx, env2)
	if err != nil {
		t.Fatalf("persistent cache read failed: %v", err)
	}
	if !snap.Has("numpy") {
		t.Error("persisted snapshot lost its contents")
	}
}
