package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDistributionName validates an installable distribution name for
// safety and correctness. Distribution names travel straight into a package
// manager's argument vector, so the rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences
//   - Must match PEP 508 naming
//   - Maximum length of 256 characters
func ValidateDistributionName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "distribution name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "distribution name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "distribution name contains invalid control characters")
		}
	}

	// Reject anything that could be misread as a path or a pip option.
	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "distribution name contains invalid characters: %q", pattern)
		}
	}
	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidInput, "distribution name cannot start with a dash")
	}

	if !distributionNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid distribution name: %q", name)
	}

	return nil
}

// distributionNameRegex matches valid Python distribution names (PEP 508).
var distributionNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidateScriptPath validates a script path handed to the execution
// supervisor. The path may be absolute (it is resolved by the caller), but
// must not smuggle control characters or be unreasonably long.
func ValidateScriptPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidScript, "script path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidScript, "script path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidScript, "script path contains invalid characters")
		}
	}

	return nil
}

// ValidateEnvName validates a virtual-environment directory name. The name
// becomes a single path segment under the project root.
func ValidateEnvName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "environment name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "environment name cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "environment name cannot be a relative path reference")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "environment name contains invalid control characters")
		}
	}

	return nil
}
