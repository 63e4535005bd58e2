package pyenv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pystudio/pystudio/pkg/cache"
	"github.com/pystudio/pystudio/pkg/errors"
)

// cacheDefaultKeyer is used when a Manager has no Keyer configured.
var cacheDefaultKeyer = cache.NewDefaultKeyer()

// snapshotTTL bounds how long a persisted snapshot may be reused when the
// site-packages fingerprint has not changed.
const snapshotTTL = 24 * time.Hour

// pipListEntry is one record of `pip list --format=json` output.
type pipListEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InstalledPackages returns the environment's installed-package snapshot.
// The result is served from the in-memory snapshot when present, then from
// the manager's persistent cache, and only then by querying the package
// manager. The returned Snapshot is immutable.
func (m *Manager) InstalledPackages(ctx context.Context, env *Environment) (Snapshot, error) {
	if env == nil {
		return nil, errors.New(errors.ErrCodeEnvNotFound, "no environment")
	}
	if env.State() != StateReady {
		return nil, errors.New(errors.ErrCodeEnvNotReady, "environment at %s is %s", env.Path, env.State())
	}

	if snap, ok := env.cachedSnapshot(); ok {
		return snap, nil
	}

	key, usable := m.snapshotKey(env)
	if usable {
		if snap, ok := m.loadPersisted(ctx, key); ok {
			env.storeSnapshot(snap)
			return snap, nil
		}
	}

	snap, err := queryInstalled(ctx, env)
	if err != nil {
		return nil, err
	}

	env.storeSnapshot(snap)
	if usable {
		m.persist(ctx, key, snap)
	}
	return snap, nil
}

// queryInstalled asks the environment's pip for its package list.
func queryInstalled(ctx context.Context, env *Environment) (Snapshot, error) {
	cmd := exec.CommandContext(ctx, env.Interpreter, "-m", "pip", "list", "--format=json")
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if ee, ok := err.(*exec.ExitError); ok {
			detail = string(ee.Stderr)
		}
		return nil, errors.Wrap(errors.ErrCodeEnvBroken, err, "pip list failed: %s", detail)
	}

	var entries []pipListEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEnvBroken, err, "cannot parse pip list output")
	}

	snap := make(Snapshot, len(entries))
	for _, e := range entries {
		snap[strings.ToLower(e.Name)] = e.Version
	}
	return snap, nil
}

// snapshotKey computes the persistent-cache key for the environment's
// current installed-package set. The fingerprint tracks the site-packages
// directory mtime, which changes on every install or uninstall.
func (m *Manager) snapshotKey(env *Environment) (string, bool) {
	if m.Cache == nil {
		return "", false
	}

	matches, err := filepath.Glob(sitePackagesGlob(env.Path))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	info, err := os.Stat(matches[0])
	if err != nil {
		return "", false
	}

	keyer := m.Keyer
	if keyer == nil {
		keyer = cacheDefaultKeyer
	}
	fp := fmt.Sprintf("mtime:%d", info.ModTime().UnixNano())
	return keyer.PackagesKey(env.Interpreter, fp), true
}

func (m *Manager) loadPersisted(ctx context.Context, key string) (Snapshot, bool) {
	data, hit, err := m.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = m.Cache.Delete(ctx, key)
		return nil, false
	}
	return snap, true
}

func (m *Manager) persist(ctx context.Context, key string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := m.Cache.Set(ctx, key, data, snapshotTTL); err != nil {
		m.logf("snapshot cache write failed: %v", err)
	}
}
