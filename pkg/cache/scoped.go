package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects, or several
// preview servers, can share one Redis without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "llumina:v1:")
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

// FrameKey generates a prefixed frame key.
func (k *ScopedKeyer) FrameKey(scene string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(scene, opts)
}

// MaskKey generates a prefixed mask key.
func (k *ScopedKeyer) MaskKey(scene string, opts MaskKeyOpts) string {
	return k.prefix + k.inner.MaskKey(scene, opts)
}

// ExportKey generates a prefixed export key.
func (k *ScopedKeyer) ExportKey(scene string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(scene, opts)
}
