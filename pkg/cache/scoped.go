package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// A shared daemon serving several workstations keys snapshots per host so
// one machine's environments never shadow another's.
//
// Example usage:
//
//	hostKeyer := NewScopedKeyer(NewDefaultKeyer(), "host:lab-03:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PackagesKey generates a prefixed key for an installed-package snapshot.
func (k *ScopedKeyer) PackagesKey(interpreter, fingerprint string) string {
	return k.prefix + k.inner.PackagesKey(interpreter, fingerprint)
}
