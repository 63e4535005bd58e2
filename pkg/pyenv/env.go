// Package pyenv models isolated Python interpreter environments and the
// manager that detects, creates, and validates them.
//
// An Environment is identified by its filesystem path and carries a lifecycle
// state. Its installed-package set is read from the environment's package
// manager as an immutable snapshot; the snapshot is replaced atomically so
// concurrent readers (dependency audits) always see either the pre- or
// post-install view, never a torn one.
package pyenv

import (
	"strings"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of an environment.
type State string

// Environment lifecycle states.
const (
	StateAbsent   State = "absent"
	StateCreating State = "creating"
	StateReady    State = "ready"
	StateBroken   State = "broken"
)

// Environment is an isolated interpreter installation. The interpreter path
// is meaningful only while the state is StateReady.
type Environment struct {
	// Path is the environment's root directory.
	Path string

	// Interpreter is the environment's Python executable.
	Interpreter string

	mu       sync.Mutex
	state    State
	detail   string // failure detail for StateBroken
	snapshot atomic.Pointer[Snapshot]

	// installBusy is the environment's single install slot. Claimed by the
	// installer so concurrent installs are rejected, not interleaved.
	installBusy atomic.Bool
}

// State returns the current lifecycle state.
func (e *Environment) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StateDetail returns the failure detail recorded with a broken state,
// typically the captured output of the subprocess that failed.
func (e *Environment) StateDetail() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detail
}

func (e *Environment) setState(s State, detail string) {
	e.mu.Lock()
	e.state = s
	e.detail = detail
	e.mu.Unlock()
}

// Snapshot is an immutable view of an environment's installed packages,
// mapping lowercased distribution name to version string. Callers must not
// mutate it; a fresh query produces a new map.
type Snapshot map[string]string

// Has reports whether the distribution is installed. Matching is
// case-insensitive, following the package index's name normalization.
func (s Snapshot) Has(dist string) bool {
	_, ok := s[strings.ToLower(dist)]
	return ok
}

// Version returns the installed version of dist, or "" if not installed.
func (s Snapshot) Version(dist string) string {
	return s[strings.ToLower(dist)]
}

// cachedSnapshot returns the in-memory snapshot, if one is loaded.
func (e *Environment) cachedSnapshot() (Snapshot, bool) {
	if p := e.snapshot.Load(); p != nil {
		return *p, true
	}
	return nil, false
}

// storeSnapshot atomically replaces the cached snapshot.
func (e *Environment) storeSnapshot(s Snapshot) {
	e.snapshot.Store(&s)
}

// InvalidatePackages drops the cached installed-package snapshot. The next
// query re-asks the package manager. Called by the installer after any
// install attempt.
func (e *Environment) InvalidatePackages() {
	e.snapshot.Store(nil)
}

// TryBeginInstall attempts to claim the environment's single install slot.
// It reports false if another install is already in flight.
func (e *Environment) TryBeginInstall() bool {
	return e.installBusy.CompareAndSwap(false, true)
}

// EndInstall releases the install slot claimed by TryBeginInstall.
func (e *Environment) EndInstall() {
	e.installBusy.Store(false)
}
