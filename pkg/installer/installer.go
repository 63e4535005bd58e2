// Package installer drives the environment's package manager to install
// missing distributions.
//
// Installs are batched into a single package-manager invocation and their
// combined output is streamed line-by-line to a progress callback as it
// arrives. After a nonzero exit the installed set is re-queried rather than
// inferred: package managers routinely install some of a batch before
// failing, and only the environment itself knows which.
//
// One install may be in flight per environment; a concurrent request is
// rejected with an INSTALL_BUSY error (it is not queued). There is no
// mid-flight cancellation beyond the passed context; an install runs to
// completion or process exit.
package installer

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pystudio/pystudio/pkg/errors"
	"github.com/pystudio/pystudio/pkg/pyenv"
)

// ProgressFunc receives one line of package-manager output as it is
// produced. Called from the installer's reader goroutine; implementations
// decide their own thread-safety.
type ProgressFunc func(line string)

// Installer invokes the package manager of a project's environment.
type Installer struct {
	// Manager is used to re-query installed packages after an attempt.
	Manager *pyenv.Manager

	// Logger receives debug output. Optional.
	Logger *log.Logger
}

// New creates an installer bound to the given environment manager.
func New(m *pyenv.Manager) *Installer {
	return &Installer{Manager: m}
}

// outputTailLimit bounds how much captured output is attached to errors.
const outputTailLimit = 64 * 1024

// InstallMissing installs the named distributions into env with one package
// manager invocation, streaming combined output to onLine (which may be
// nil). On a clean exit the environment's package snapshot is invalidated
// and nil is returned. On a nonzero exit the installed set is re-queried
// and a *errors.PartialInstallError carrying the residual missing list is
// returned (wrapped with ErrCodePartialInstall).
func (i *Installer) InstallMissing(ctx context.Context, env *pyenv.Environment, names []string, onLine ProgressFunc) error {
	if len(names) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no distributions to install")
	}
	for _, name := range names {
		if err := errors.ValidateDistributionName(name); err != nil {
			return err
		}
	}
	if env == nil || env.State() != pyenv.StateReady {
		return errors.New(errors.ErrCodeEnvNotReady, "environment is not ready")
	}

	if !env.TryBeginInstall() {
		return errors.New(errors.ErrCodeInstallBusy, "an install is already in flight for %s", env.Path)
	}
	defer env.EndInstall()

	args := append([]string{"-m", "pip", "install"}, names...)
	cmd := exec.CommandContext(ctx, env.Interpreter, args...)

	// pip interleaves progress on stdout and warnings on stderr; the
	// consumer wants them in arrival order, so both feed one pipe.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if i.Logger != nil {
		i.Logger.Debugf("installing %s into %s", strings.Join(names, " "), env.Path)
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return errors.Wrap(errors.ErrCodeProcessSpawn, err, "cannot start package manager %s", env.Interpreter)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	var captured strings.Builder
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if captured.Len() < outputTailLimit {
			captured.WriteString(line)
			captured.WriteByte('\n')
		}
		if onLine != nil {
			onLine(line)
		}
	}

	err := <-waitErr

	// Whatever happened, the cached snapshot may be stale now.
	env.InvalidatePackages()

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Nonzero exit: find out empirically what actually landed.
	snap, qerr := i.Manager.InstalledPackages(ctx, env)
	if qerr != nil {
		return errors.Wrap(errors.ErrCodeEnvBroken, qerr,
			"install failed and environment could not be re-queried: %s", tail(captured.String()))
	}

	var residual []string
	for _, name := range names {
		if !snap.Has(name) {
			residual = append(residual, name)
		}
	}
	if len(residual) == 0 {
		// Everything requested is present despite the exit code (e.g. a
		// post-install hook failed). Not a dependency problem.
		return nil
	}

	pie := &errors.PartialInstallError{
		Requested: names,
		Residual:  residual,
		Output:    tail(captured.String()),
	}
	return errors.Wrap(errors.ErrCodePartialInstall, pie,
		"install of %d distributions left %d missing", len(names), len(residual))
}

// tail trims captured output to its last few lines for error payloads.
func tail(s string) string {
	const maxLines = 20
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
