// Package pkg provides the core libraries for PyStudio dependency and
// execution orchestration.
//
// # Overview
//
// PyStudio keeps a Python project runnable: it scans source files for
// imports, maps them to installable distributions, audits them against the
// project's virtual environment, installs what is missing, and supervises
// script execution. The pkg directory is organized into four main areas:
//
//  1. [engine] - Project-level orchestration (open, audit, install, run)
//  2. [pyenv], [imports], [audit] - Environment and dependency analysis
//  3. [installer], [runner], [syntax] - Process-level operations
//  4. [cache], [errors], [observability] - Shared infrastructure
//
// # Architecture
//
// The typical data flow through PyStudio:
//
//	Python source files
//	         ↓
//	    [imports] package (scan imports, resolve aliases)
//	         ↓
//	    [pyenv] package (detect venv, query installed packages)
//	         ↓
//	    [audit] package (classify installed vs missing)
//	         ↓
//	    [installer] / [runner] packages (pip install, supervised execution)
//
// # Quick Start
//
// Audit a project and install whatever is missing:
//
//	import (
//	    "context"
//	    "github.com/pystudio/pystudio/pkg/cache"
//	    "github.com/pystudio/pystudio/pkg/engine"
//	)
//
//	// 1. Build an engine with a persistent snapshot cache
//	c, _ := cache.NewFileCache(dir)
//	eng := engine.New(engine.Options{Cache: c})
//
//	// 2. Open the project (reads pystudio.toml, detects the venv)
//	p, _ := eng.OpenProject("/path/to/project")
//
//	// 3. Audit a script against the environment
//	report, _ := eng.AuditFile(context.Background(), p, "main.py")
//
//	// 4. Install the missing distributions
//	eng.InstallMissing(context.Background(), p, report.Missing, nil)
//
// # Main Packages
//
// ## Orchestration
//
// [engine] - Ties everything together. Loads per-project configuration,
// detects the environment, and exposes the audit, install, check, and run
// operations used by both the CLI and the HTTP API.
//
// ## Dependency Analysis
//
// [imports] - Import scanner and alias resolver. Extracts top-level module
// names from Python source without executing it, filters the standard
// library, and maps import names to PyPI distribution names (cv2 becomes
// opencv-python).
//
// [pyenv] - Virtual environment registry and manager. Detects venv layouts
// across platforms, creates environments with a base interpreter, and keeps
// an atomically swapped snapshot of installed packages backed by pip.
//
// [audit] - Compares required distributions against the installed snapshot
// and classifies each dependency as installed, missing, or unresolvable.
//
// ## Process Operations
//
// [installer] - Streamed pip installs. Runs a single batched pip process,
// forwards its combined output line by line, and reports partial failures
// by re-querying the environment afterwards.
//
// [runner] - Execution supervisor. Starts scripts in their own process
// group, streams stdout and stderr as ordered events, and handles
// cancellation with a SIGTERM grace period before SIGKILL.
//
// [syntax] - Structural pre-check for Python source: unclosed brackets,
// unterminated strings, and missing colons on compound statement headers.
//
// ## Infrastructure
//
// [cache] - Package-snapshot cache with file, Redis, and null backends.
//
// [errors] - Stable error codes with wrapping, user-facing messages, and
// input validation helpers.
//
// [observability] - Pluggable hooks for engine, cache, and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/runner/...     # Specific package
//
// [engine]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/engine
// [imports]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/imports
// [pyenv]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/pyenv
// [audit]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/audit
// [installer]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/installer
// [runner]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/runner
// [syntax]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/syntax
// [cache]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/cache
// [errors]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/errors
// [observability]: https://pkg.go.dev/github.com/pystudio/pystudio/pkg/observability
package pkg
