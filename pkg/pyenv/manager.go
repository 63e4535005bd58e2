package pyenv

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pystudio/pystudio/pkg/cache"
	"github.com/pystudio/pystudio/pkg/errors"
)

// DefaultCandidates are the directory names probed when detecting an
// environment inside a project.
var DefaultCandidates = []string{"venv", "env", ".venv", ".env"}

// Manager creates, detects, and validates interpreter environments. Side
// effects are confined to the filesystem and subprocess invocation; any
// network activity belongs to the underlying package manager.
type Manager struct {
	// BasePython overrides base interpreter discovery for Create. When
	// empty, the PATH is probed for a conventional interpreter name.
	BasePython string

	// Candidates are the environment directory names probed by Detect.
	// Defaults to DefaultCandidates when nil.
	Candidates []string

	// Cache persists installed-package snapshots across invocations.
	// Optional; nil disables persistence (the in-memory snapshot on the
	// Environment still applies).
	Cache cache.Cache

	// Keyer generates cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer

	// Logger receives debug output. Optional.
	Logger *log.Logger
}

// NewManager creates a manager with default candidates and no snapshot
// persistence.
func NewManager() *Manager {
	return &Manager{Candidates: DefaultCandidates}
}

func (m *Manager) candidates() []string {
	if len(m.Candidates) == 0 {
		return DefaultCandidates
	}
	return m.Candidates
}

func (m *Manager) logf(format string, args ...any) {
	if m.Logger != nil {
		m.Logger.Debugf(format, args...)
	}
}

// Detect searches projectPath for a recognizable environment layout. It
// returns a ready Environment with its discovered interpreter, or nil when
// no environment exists (the absent state).
func (m *Manager) Detect(projectPath string) *Environment {
	for _, name := range m.candidates() {
		envDir := filepath.Join(projectPath, name)
		info, err := os.Stat(envDir)
		if err != nil || !info.IsDir() {
			continue
		}

		interp := interpreterPath(envDir)
		if _, err := os.Stat(interp); err != nil {
			continue
		}

		m.logf("detected environment %s", envDir)
		return &Environment{
			Path:        envDir,
			Interpreter: interp,
			state:       StateReady,
		}
	}
	return nil
}

// Create builds a new virtual environment named name under projectPath by
// invoking the base interpreter's venv module. The returned environment is
// ready on success. Failure modes:
//   - target path exists and is not an empty directory: ErrCodeEnvCreation
//   - no base interpreter available: ErrCodeEnvCreation
//   - venv subprocess fails: ErrCodeEnvCreation, environment left broken
//     with the subprocess output as detail
func (m *Manager) Create(ctx context.Context, projectPath, name string) (*Environment, error) {
	if err := errors.ValidateEnvName(name); err != nil {
		return nil, err
	}

	target := filepath.Join(projectPath, name)
	if info, err := os.Stat(target); err == nil {
		if !info.IsDir() {
			return nil, errors.New(errors.ErrCodeEnvCreation, "target %s exists and is not a directory", target)
		}
		entries, err := os.ReadDir(target)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeEnvCreation, err, "cannot inspect target %s", target)
		}
		if len(entries) > 0 {
			return nil, errors.New(errors.ErrCodeEnvCreation, "target %s already exists", target)
		}
	}

	base, err := m.basePython()
	if err != nil {
		return nil, err
	}

	env := &Environment{Path: target, state: StateCreating}
	m.logf("creating environment %s with %s", target, base)

	cmd := exec.CommandContext(ctx, base, "-m", "venv", target)
	out, err := cmd.CombinedOutput()
	if err != nil {
		env.setState(StateBroken, string(out))
		return env, errors.Wrap(errors.ErrCodeEnvCreation, err, "venv creation failed: %s", string(out))
	}

	interp := interpreterPath(target)
	if _, err := os.Stat(interp); err != nil {
		env.setState(StateBroken, "interpreter missing after creation")
		return env, errors.Wrap(errors.ErrCodeEnvCreation, err, "environment created but interpreter missing at %s", interp)
	}

	env.Interpreter = interp
	env.setState(StateReady, "")
	return env, nil
}

// Validate checks that a detected environment is actually usable: the
// interpreter must exist and be a regular file. Returns ErrCodeEnvBroken
// otherwise and marks the environment broken.
func (m *Manager) Validate(env *Environment) error {
	if env == nil {
		return errors.New(errors.ErrCodeEnvNotFound, "no environment")
	}
	info, err := os.Stat(env.Interpreter)
	if err != nil || info.IsDir() {
		env.setState(StateBroken, "interpreter missing or not a file")
		return errors.New(errors.ErrCodeEnvBroken, "environment at %s has no usable interpreter", env.Path)
	}
	return nil
}

// basePython resolves the interpreter used to bootstrap new environments.
func (m *Manager) basePython() (string, error) {
	if m.BasePython != "" {
		if _, err := os.Stat(m.BasePython); err != nil {
			return "", errors.Wrap(errors.ErrCodeEnvCreation, err, "configured base interpreter %s unavailable", m.BasePython)
		}
		return m.BasePython, nil
	}
	for _, name := range basePythonNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New(errors.ErrCodeEnvCreation, "no base Python interpreter found on PATH")
}
