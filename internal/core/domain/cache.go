package domain

// CacheKey identifies the shaking and evaluation of a module for one set of
// required exports at one content hash.
type CacheKey struct {
	Filename string `json:"filename"`
	Exports  string `json:"exports"`
	Hash     string `json:"hash"`
}

// NewCacheKey builds the key for filename evaluated for exports at hash.
func NewCacheKey(filename string, exports ExportSet, hash string) CacheKey {
	return CacheKey{Filename: filename, Exports: exports.Key(), Hash: hash}
}

// String renders the key in a stable form suitable for hashing.
func (k CacheKey) String() string {
	return k.Filename + "|" + k.Exports + "|" + k.Hash
}

// CacheEntry is the memoized outcome of shaking and evaluating a module.
// It is immutable once written.
type CacheEntry struct {
	Key        CacheKey            `json:"key"`
	ShakenCode string              `json:"shakenCode"`
	Exports    []string            `json:"exports"`
	Imports    map[string][]string `json:"imports,omitempty"`
	Edges      []DependencyEdge    `json:"edges,omitempty"`
	Values     map[string]Value    `json:"values,omitempty"`
	// DepsFingerprint summarises the content of every transitive dependency
	// at the time Values were computed.
	DepsFingerprint string `json:"depsFingerprint,omitempty"`
	// Reusable is false when Values hold function markers, which only the
	// live runtime can provide.
	Reusable bool `json:"reusable"`
	// Evaluated records whether Values came from the JavaScript runtime.
	Evaluated bool `json:"evaluated"`
}
