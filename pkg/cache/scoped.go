package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments (or
// profiles) can share one Redis instance without reading each other's
// artifacts.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "heatmap:prod:")
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

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pointsHash, opts)
}
