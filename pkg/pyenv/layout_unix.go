//go:build !windows

package pyenv

import "path/filepath"

// interpreterPath returns the conventional interpreter location inside an
// environment directory for this platform.
func interpreterPath(envDir string) string {
	return filepath.Join(envDir, "bin", "python")
}

// sitePackagesGlob returns a glob matching the environment's site-packages
// directory. Used to fingerprint the installed-package set.
func sitePackagesGlob(envDir string) string {
	return filepath.Join(envDir, "lib", "python*", "site-packages")
}

// basePythonNames lists base interpreter executables probed on PATH, in
// preference order.
var basePythonNames = []string{"python3", "python"}
