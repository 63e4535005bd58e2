//go:build !windows

package installer

import (
	"context"
	"os"
	"path/filepath"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/pystudio/pystudio/pkg/errors"
	"github.com/pystudio/pystudio/pkg/pyenv"
)

// fakeEnv writes a project with a venv whose interpreter is a shell script,
// then detects it. The script sees "-m pip install NAMES..." or
// "-m pip list --format=json" as its arguments.
func fakeEnv(t *testing.T, script string) (*pyenv.Manager, *pyenv.Environment) {
	t.Helper()
	project := t.TempDir()
	binDir := filepath.Join(project, "venv", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "python"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	m := pyenv.NewManager()
	env := m.Detect(project)
	if env == nil {
		t.Fatal("Detect did not find the fake environment")
	}
	return m, env
}

func TestInstallMissing(t *testing.T) {
	const script = `#!/bin/sh
if [ "$3" = "install" ]; then
	echo "Collecting numpy"
	echo "Successfully installed numpy-1.26.0"
	exit 0
fi
echo '[{"name": "numpy", "version": "1.26.0"}]'
`
	m, env := fakeEnv(t, script)

	var mu sync.Mutex
	var lines []string
	onLine := func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	}

	inst := New(m)
	if err := inst.InstallMissing(context.Background(), env, []string{"numpy"}, onLine); err != nil {
		t.Fatalf("InstallMissing: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 {
		t.Fatalf("streamed %d lines, want 2: %q", len(lines), lines)
	}
	if lines[0] != "Collecting numpy" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestInstallMissingPartialFailure(t *testing.T) {
	// Install exits nonzero; the follow-up list query shows only numpy
	// landed, so pandas must be reported as residual.
	const script = `#!/bin/sh
if [ "$3" = "install" ]; then
	echo "Collecting numpy"
	echo "ERROR: No matching distribution found for pandas" >&2
	exit 1
fi
echo '[{"name": "numpy", "version": "1.26.0"}]'
`
	m, env := fakeEnv(t, script)

	err := New(m).InstallMissing(context.Background(), env, []string{"numpy", "pandas"}, nil)
	if err == nil {
		t.Fatal("expected error from partial install")
	}
	if !errors.Is(err, errors.ErrCodePartialInstall) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodePartialInstall)
	}

	var pie *errors.PartialInstallError
	if !stderrors.As(err, &pie) {
		t.Fatalf("cannot extract PartialInstallError from %v", err)
	}
	if len(pie.Residual) != 1 || pie.Residual[0] != "pandas" {
		t.Errorf("Residual = %v, want [pandas]", pie.Residual)
	}
	if !strings.Contains(pie.Output, "No matching distribution") {
		t.Errorf("Output missing stderr line: %q", pie.Output)
	}
}

func TestInstallMissingFailedButAllPresent(t *testing.T) {
	// Nonzero exit but everything requested is installed afterwards:
	// treated as success.
	const script = `#!/bin/sh
if [ "$3" = "install" ]; then
	exit 1
fi
echo '[{"name": "numpy", "version": "1.26.0"}]'
`
	m, env := fakeEnv(t, script)

	if err := New(m).InstallMissing(context.Background(), env, []string{"numpy"}, nil); err != nil {
		t.Fatalf("InstallMissing: %v", err)
	}
}

func TestInstallMissingValidation(t *testing.T) {
	m, env := fakeEnv(t, "#!/bin/sh\nexit 0\n")
	inst := New(m)

	if err := inst.InstallMissing(context.Background(), env, nil, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty names: code = %v", errors.GetCode(err))
	}
	if err := inst.InstallMissing(context.Background(), env, []string{"--upgrade"}, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("flag-like name: code = %v", errors.GetCode(err))
	}
	if err := inst.InstallMissing(context.Background(), nil, []string{"numpy"}, nil); !errors.Is(err, errors.ErrCodeEnvNotReady) {
		t.Errorf("nil env: code = %v", errors.GetCode(err))
	}
}

func TestInstallMissingRejectsConcurrent(t *testing.T) {
	m, env := fakeEnv(t, "#!/bin/sh\nexit 0\n")

	if !env.TryBeginInstall() {
		t.Fatal("could not claim install slot")
	}
	defer env.EndInstall()

	err := New(m).InstallMissing(context.Background(), env, []string{"numpy"}, nil)
	if !errors.Is(err, errors.ErrCodeInstallBusy) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInstallBusy)
	}
}

func TestInstallMissingRefreshesSnapshot(t *testing.T) {
	const script = `#!/bin/sh
if [ "$3" = "install" ]; then
	exit 0
fi
if [ -f "$STAMP" ]; then
	echo '[{"name": "numpy", "version": "1.26.0"}]'
else
	echo '[]'
fi
`
	m, env := fakeEnv(t, script)
	stamp := filepath.Join(t.TempDir(), "installed")
	t.Setenv("STAMP", stamp)

	ctx := context.Background()
	snap, err := m.InstalledPackages(ctx, env)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Has("numpy") {
		t.Fatal("numpy present before install")
	}

	if err := os.WriteFile(stamp, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := New(m).InstallMissing(ctx, env, []string{"numpy"}, nil); err != nil {
		t.Fatal(err)
	}

	snap, err = m.InstalledPackages(ctx, env)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Has("numpy") {
		t.Error("snapshot not refreshed after install")
	}
}
