// Package imports extracts third-party module requirements from Python source.
//
// The scanner is a static, best-effort analysis: it never executes the source
// and never fails. On malformed input it reports whatever complete import
// statements it recognized; syntax diagnostics are the syntax package's job.
//
// The package also provides the alias table mapping import names to
// installable distribution names (e.g. cv2 -> opencv-python).
package imports

import (
	"regexp"
	"strings"
)

var (
	importRe     = regexp.MustCompile(`^import\s+(.+)$`)
	fromImportRe = regexp.MustCompile(`^from\s+([.\w]+)\s+import\b`)
)

// Scan returns the unique top-level external module names referenced by
// import statements in source, in first-seen order. Relative imports,
// standard-library modules, and dotted suffixes are excluded: for
// "import numpy.linalg" only "numpy" is reported. Nested imports inside
// functions or conditionals are included.
//
// Scan never fails; unparseable lines are skipped.
func Scan(source string) []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)

	add := func(name string) {
		root := rootSegment(name)
		if root == "" || seen[root] || IsStandardLibrary(root) {
			return
		}
		seen[root] = true
		names = append(names, root)
	}

	for _, stmt := range logicalStatements(source) {
		if m := fromImportRe.FindStringSubmatch(stmt); m != nil {
			if strings.HasPrefix(m[1], ".") {
				continue // relative import
			}
			add(m[1])
			continue
		}
		if m := importRe.FindStringSubmatch(stmt); m != nil {
			// "import a.b as c, d" names several modules at once.
			for _, part := range strings.Split(m[1], ",") {
				mod := strings.TrimSpace(part)
				if i := strings.Index(mod, " as "); i >= 0 {
					mod = mod[:i]
				}
				add(strings.TrimSpace(mod))
			}
		}
	}

	return names
}

// rootSegment keeps only the first dotted segment and rejects names that are
// not plausible module identifiers.
func rootSegment(name string) string {
	root, _, _ := strings.Cut(name, ".")
	root = strings.TrimSpace(root)
	if !identifierRe.MatchString(root) {
		return ""
	}
	return root
}

// logicalStatements splits source into trimmed logical lines suitable for
// import matching. It tracks triple-quoted strings (imports inside doc
// strings do not count), strips comments outside strings, joins backslash
// continuations, and splits on semicolons.
func logicalStatements(source string) []string {
	var (
		stmts   []string
		pending string   // continuation accumulated so far
		inStr   bool     // inside a triple-quoted string
		strEnd  string   // delimiter that closes it
	)

	for _, raw := range strings.Split(source, "\n") {
		line := raw

		if inStr {
			i := strings.Index(line, strEnd)
			if i < 0 {
				continue
			}
			line = line[i+len(strEnd):]
			inStr = false
		}

		// Strip triple-quoted spans that open (and possibly close) here.
		for {
			q, delim := firstTripleQuote(line)
			if q < 0 {
				break
			}
			end := strings.Index(line[q+3:], delim)
			if end < 0 {
				inStr = true
				strEnd = delim
				line = line[:q]
				break
			}
			line = line[:q] + " " + line[q+3+end+3:]
		}

		line = stripComment(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if pending != "" {
			line = pending + " " + line
			pending = ""
		}

		if strings.HasSuffix(line, "\\") {
			pending = strings.TrimSuffix(line, "\\")
			continue
		}

		// Parenthesised from-import lists span lines; the statement is
		// already identifiable from its header, so no joining is needed.
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt != "" {
				stmts = append(stmts, stmt)
			}
		}
	}

	if pending != "" {
		stmts = append(stmts, strings.TrimSpace(pending))
	}

	return stmts
}

// firstTripleQuote returns the index and delimiter of the first triple quote
// in line, or -1 if none.
func firstTripleQuote(line string) (int, string) {
	d := strings.Index(line, `"""`)
	s := strings.Index(line, "'''")
	switch {
	case d < 0 && s < 0:
		return -1, ""
	case s < 0 || (d >= 0 && d < s):
		return d, `"""`
	default:
		return s, "'''"
	}
}

// stripComment removes a trailing # comment, respecting single-quoted and
// double-quoted string literals on the line.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}
