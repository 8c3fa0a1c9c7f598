package cache

// ScopedKeyer wraps a Keyer with a prefix. The server scopes keys by build
// version so a shared Redis never serves artifacts from an older renderer.
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

// ReportKey generates a prefixed compliance report key.
func (k *ScopedKeyer) ReportKey(surveyHash string) string {
	return k.prefix + k.inner.ReportKey(surveyHash)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(surveyHash string) string {
	return k.prefix + k.inner.LayoutKey(surveyHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(surveyHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(surveyHash, opts)
}
