package imports

import (
	"regexp"
	"strings"
)

// identifierRe matches a syntactically valid Python module identifier.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// defaultAliases maps well-known import names to the distribution name the
// package index knows them by. Keys are lowercase; lookups lowercase the
// import name first.
var defaultAliases = map[string]string{
	"pil":     "pillow",
	"yaml":    "pyyaml",
	"cv2":     "opencv-python",
	"skimage": "scikit-image",
	"sklearn": "scikit-learn",
	"bs4":     "beautifulsoup4",
	"dotenv":  "python-dotenv",
	"dateutil": "python-dateutil",
}

// Resolver maps import names to installable distribution names.
// The zero value is not usable; construct with NewResolver.
type Resolver struct {
	table map[string]string
}

// NewResolver creates a resolver seeded with the built-in alias table.
// Entries in extra are merged on top and may override built-ins; keys are
// matched case-insensitively.
func NewResolver(extra map[string]string) *Resolver {
	table := make(map[string]string, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		table[k] = v
	}
	for k, v := range extra {
		table[strings.ToLower(k)] = v
	}
	return &Resolver{table: table}
}

// Resolve maps an import name to its distribution name. The table lookup
// folds the name to lower case, so PIL and pil both resolve to pillow;
// names without a table entry resolve to themselves with their original
// casing. The lookup is O(1) and total. ok is false only when the name is
// not a plausible module identifier at all (empty, or containing
// non-identifier characters); such names have no installable distribution.
func (r *Resolver) Resolve(importName string) (dist string, ok bool) {
	if !identifierRe.MatchString(importName) {
		return "", false
	}
	if mapped, hit := r.table[strings.ToLower(importName)]; hit {
		return mapped, true
	}
	return importName, true
}
