// Package engine composes the scan → resolve → audit → install → run
// workflow behind a single facade.
//
// This package implements the orchestration used by CLI and API
// components. By centralizing this logic, we ensure consistent behavior
// across all entry points and avoid code duplication.
//
// # Architecture
//
// An Engine owns the long-lived collaborators (environment manager,
// installer, execution supervisor, caches). A Project is the cheap
// per-directory handle: its configuration, detected environment, and
// alias resolver. Operations take both:
//
//	eng := engine.New(engine.Options{Cache: fileCache, Logger: logger})
//	project, err := eng.OpenProject("/home/alice/sandbox")
//	report, err := eng.AuditFile(ctx, project, "main.py")
//	if len(report.Missing) > 0 {
//	    err = eng.InstallMissing(ctx, project, report.Missing, printLine)
//	}
//	sess, err := eng.Run(ctx, project, "main.py")
package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pystudio/pystudio/pkg/audit"
	"github.com/pystudio/pystudio/pkg/cache"
	"github.com/pystudio/pystudio/pkg/errors"
	"github.com/pystudio/pystudio/pkg/imports"
	"github.com/pystudio/pystudio/pkg/installer"
	"github.com/pystudio/pystudio/pkg/observability"
	"github.com/pystudio/pystudio/pkg/pyenv"
	"github.com/pystudio/pystudio/pkg/runner"
	"github.com/pystudio/pystudio/pkg/syntax"
)

// =============================================================================
// Engine
// =============================================================================

// Options configures a new Engine.
type Options struct {
	// Cache persists installed-package snapshots. Nil disables
	// persistence.
	Cache cache.Cache

	// Keyer generates cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer

	// BasePython overrides base-interpreter discovery for environment
	// creation.
	BasePython string

	// Grace is the cancel grace period applied to sessions. Zero means
	// runner.DefaultGrace; per-project configuration can still override.
	Grace time.Duration

	// Logger receives structured output. Defaults to log.Default().
	Logger *log.Logger
}

// Engine is the orchestration facade. It is safe for concurrent use; the
// per-environment and per-project concurrency limits are enforced by the
// underlying components.
type Engine struct {
	Manager    *pyenv.Manager
	Installer  *installer.Installer
	Supervisor *runner.Supervisor
	Logger     *log.Logger
}

// New assembles an engine from the given options.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	manager := pyenv.NewManager()
	manager.BasePython = opts.BasePython
	manager.Cache = opts.Cache
	manager.Keyer = opts.Keyer
	manager.Logger = logger

	supervisor := runner.NewSupervisor()
	supervisor.Grace = opts.Grace
	supervisor.Logger = logger

	return &Engine{
		Manager:    manager,
		Installer:  installer.New(manager),
		Supervisor: supervisor,
		Logger:     logger,
	}
}

// =============================================================================
// Projects
// =============================================================================

// Project is an opened project directory: its root, configuration,
// detected environment, and alias resolver.
type Project struct {
	Root   string
	Config *Config
	Env    *pyenv.Environment

	manager  *pyenv.Manager
	resolver *imports.Resolver
}

// Resolver returns the project's alias resolver, including any aliases
// from its configuration.
func (p *Project) Resolver() *imports.Resolver {
	return p.resolver
}

// OpenProject loads a project's configuration and detects its environment.
// The root must be an existing directory.
func (e *Engine) OpenProject(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot resolve project path %s", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "project directory not found: %s", abs)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", abs)
	}

	cfg, err := LoadConfig(abs)
	if err != nil {
		return nil, err
	}

	// Per-project overrides get their own manager view; the cache and
	// base settings come from the engine.
	manager := *e.Manager
	if len(cfg.Env.Candidates) > 0 {
		manager.Candidates = cfg.Env.Candidates
	}
	if cfg.Env.BasePython != "" {
		manager.BasePython = cfg.Env.BasePython
	}

	p := &Project{
		Root:     abs,
		Config:   cfg,
		Env:      manager.Detect(abs),
		manager:  &manager,
		resolver: imports.NewResolver(cfg.Aliases),
	}
	return p, nil
}

// CreateEnv creates the project's virtual environment using the configured
// name and re-detects it.
func (e *Engine) CreateEnv(ctx context.Context, p *Project) (*pyenv.Environment, error) {
	name := p.Config.Env.Name
	if name == "" {
		name = "venv"
	}
	env, err := p.manager.Create(ctx, p.Root, name)
	if err != nil {
		return nil, err
	}
	p.Env = env
	return env, nil
}

// =============================================================================
// Auditing
// =============================================================================

// Report is the outcome of a dependency audit.
type Report struct {
	// Script is the audited file relative to the project root, or empty
	// for source and whole-project audits.
	Script string `json:"script,omitempty"`

	// EnvState is the environment's state at audit time. When the
	// environment is absent every external dependency is missing.
	EnvState pyenv.State `json:"env_state"`

	// Dependencies lists every external import in first-seen order.
	Dependencies []audit.Dependency `json:"dependencies"`

	// Missing are the installable distributions absent from the
	// environment, in dependency order.
	Missing []string `json:"missing"`
}

// AuditSource audits Python source text against the project's environment.
func (e *Engine) AuditSource(ctx context.Context, p *Project, source string) (*Report, error) {
	return e.auditImports(ctx, p, imports.Scan(source))
}

// AuditFile audits one script. The path is resolved against the project
// root unless absolute.
func (e *Engine) AuditFile(ctx context.Context, p *Project, path string) (*Report, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.Root, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read script %s", path)
	}

	report, err := e.AuditSource(ctx, p, string(data))
	if err != nil {
		return nil, err
	}
	if rel, relErr := filepath.Rel(p.Root, abs); relErr == nil {
		report.Script = rel
	} else {
		report.Script = abs
	}
	return report, nil
}

// AuditProject audits every Python file under the project root, excluding
// environment and tooling directories. Imports keep first-seen order
// across files, walked in lexical path order.
func (e *Engine) AuditProject(ctx context.Context, p *Project) (*Report, error) {
	skip := map[string]bool{
		".git":         true,
		"__pycache__":  true,
		".vscode":      true,
		".idea":        true,
		"build":        true,
		"dist":         true,
		"node_modules": true,
	}
	for _, c := range p.candidateNames() {
		skip[c] = true
	}

	var names []string
	seen := make(map[string]bool)
	err := filepath.WalkDir(p.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != p.Root && (skip[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, name := range imports.Scan(string(data)) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot walk project %s", p.Root)
	}

	return e.auditImports(ctx, p, names)
}

func (e *Engine) auditImports(ctx context.Context, p *Project, names []string) (*Report, error) {
	start := time.Now()
	observability.Engine().OnAuditStart(ctx, p.Root)

	var snap pyenv.Snapshot
	state := pyenv.StateAbsent
	if p.Env != nil {
		state = p.Env.State()
		s, err := p.manager.InstalledPackages(ctx, p.Env)
		if err != nil {
			observability.Engine().OnAuditComplete(ctx, p.Root, 0, time.Since(start), err)
			return nil, err
		}
		snap = s
	}

	deps := audit.Audit(names, snap, p.resolver)
	report := &Report{
		EnvState:     state,
		Dependencies: deps,
		Missing:      audit.Missing(deps),
	}

	e.Logger.Debug("audit finished",
		"project", p.Root,
		"imports", len(names),
		"missing", len(report.Missing))
	observability.Engine().OnAuditComplete(ctx, p.Root, len(report.Missing), time.Since(start), nil)
	return report, nil
}

func (p *Project) candidateNames() []string {
	if len(p.Config.Env.Candidates) > 0 {
		return p.Config.Env.Candidates
	}
	return pyenv.DefaultCandidates
}

// =============================================================================
// Installing
// =============================================================================

// InstallMissing installs the named distributions into the project's
// environment, streaming package-manager output to onLine.
func (e *Engine) InstallMissing(ctx context.Context, p *Project, names []string, onLine installer.ProgressFunc) error {
	start := time.Now()
	observability.Engine().OnInstallStart(ctx, p.Root, names)

	err := e.Installer.InstallMissing(ctx, p.Env, names, onLine)

	observability.Engine().OnInstallComplete(ctx, p.Root, names, time.Since(start), err)
	return err
}

// =============================================================================
// Syntax checking
// =============================================================================

// Check runs the structural pre-check on source text.
func (e *Engine) Check(source string) []syntax.Problem {
	return syntax.Check(source)
}

// CheckFile runs the structural pre-check on one script.
func (e *Engine) CheckFile(p *Project, path string) ([]syntax.Problem, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.Root, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read script %s", path)
	}
	return syntax.Check(string(data)), nil
}

// =============================================================================
// Running
// =============================================================================

// Run executes a script under the project's environment, passing args to
// the script verbatim. The script is structurally pre-checked first; a
// script that cannot pass the pre-check is rejected without spawning a
// process. The returned session streams output and settles into a terminal
// state on its own. A configured run timeout cancels the session when it
// elapses.
func (e *Engine) Run(ctx context.Context, p *Project, script string, args ...string) (*runner.Session, error) {
	if p.Env == nil {
		return nil, errors.New(errors.ErrCodeEnvNotFound, "project has no environment; create one first")
	}
	if err := p.manager.Validate(p.Env); err != nil {
		return nil, err
	}

	problems, err := e.CheckFile(p, script)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		first := problems[0]
		return nil, errors.New(errors.ErrCodeInvalidScript,
			"%s has structural problems, first at line %d: %s", script, first.Line, first.Message)
	}

	start := time.Now()
	observability.Engine().OnRunStart(ctx, p.Root, script)

	sess, err := e.Supervisor.Start(ctx, p.Env.Interpreter, p.Root, script, args...)
	if err != nil {
		observability.Engine().OnRunComplete(ctx, p.Root, script, "", time.Since(start))
		return nil, err
	}
	sess.SetGrace(p.Config.Run.GracePeriod.Std())

	if timeout := p.Config.Run.Timeout.Std(); timeout > 0 {
		go func() {
			select {
			case <-sess.Done():
			case <-time.After(timeout):
				sess.Cancel()
			}
		}()
	}

	go func() {
		<-sess.Done()
		observability.Engine().OnRunComplete(ctx, p.Root, script, string(sess.State()), time.Since(start))
	}()
	return sess, nil
}

// Session returns a previously started session by ID.
func (e *Engine) Session(id string) (*runner.Session, error) {
	return e.Supervisor.Get(id)
}

// Cancel requests termination of a session by ID and returns immediately.
func (e *Engine) Cancel(id string) error {
	sess, err := e.Supervisor.Get(id)
	if err != nil {
		return err
	}
	sess.Cancel()
	return nil
}
