// Package audit computes the diff between a project's required imports and
// its environment's installed packages.
//
// An audit is a pure function over a package snapshot: it performs no I/O,
// has no side effects, and is safe to run concurrently with installs
// because the snapshot it reads is immutable. A second audit after an
// install completes is required to observe the new state.
package audit

import (
	"github.com/pystudio/pystudio/pkg/imports"
	"github.com/pystudio/pystudio/pkg/pyenv"
)

// Status classifies one dependency.
type Status string

// Dependency statuses.
const (
	// StatusInstalled means the resolved distribution is present in the
	// environment.
	StatusInstalled Status = "installed"

	// StatusMissing means the resolved distribution is absent but
	// installable.
	StatusMissing Status = "missing"

	// StatusUnresolvable means no plausible distribution exists for the
	// import name (blank or non-identifier names).
	StatusUnresolvable Status = "unresolvable"
)

// Dependency is one ephemeral, per-scan audit record. It is a view derived
// from (import name, snapshot, alias table), never persisted.
type Dependency struct {
	// ImportName is the module name as written in source.
	ImportName string `json:"import_name"`

	// Distribution is the installable distribution name, empty when
	// unresolvable.
	Distribution string `json:"distribution,omitempty"`

	// Status is the classification against the snapshot.
	Status Status `json:"status"`

	// Version is the installed version, present only when installed.
	Version string `json:"version,omitempty"`
}

// Audit classifies each unique import name against the snapshot, preserving
// first-seen order. Duplicate names are collapsed to their first occurrence.
func Audit(importNames []string, snap pyenv.Snapshot, resolver *imports.Resolver) []Dependency {
	deps := make([]Dependency, 0, len(importNames))
	seen := make(map[string]bool, len(importNames))

	for _, name := range importNames {
		if seen[name] {
			continue
		}
		seen[name] = true

		dist, ok := resolver.Resolve(name)
		if !ok {
			deps = append(deps, Dependency{
				ImportName: name,
				Status:     StatusUnresolvable,
			})
			continue
		}

		d := Dependency{ImportName: name, Distribution: dist, Status: StatusMissing}
		if snap.Has(dist) {
			d.Status = StatusInstalled
			d.Version = snap.Version(dist)
		}
		deps = append(deps, d)
	}

	return deps
}

// Missing returns the distribution names of all missing dependencies, in
// audit order. This is the list handed to the installer.
func Missing(deps []Dependency) []string {
	var names []string
	for _, d := range deps {
		if d.Status == StatusMissing {
			names = append(names, d.Distribution)
		}
	}
	return names
}
