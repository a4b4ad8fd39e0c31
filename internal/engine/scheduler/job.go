package scheduler

import (
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/engine/shaker"
)

// job is the loop-owned working state of one Entrypoint generation.
type job struct {
	started bool

	// resolved maps import specifiers to filenames. Assets map to "".
	resolved    map[string]string
	assets      map[string]bool
	resolveErrs map[string]error

	starExports  map[string]string
	pendingStars int

	key    domain.CacheKey
	cached *domain.CacheEntry
	shaken *shaker.Result

	deps         map[string]domain.ExecDependency
	fingerprints []string
	waiting      int

	// waiters are notified once the generation resolved or failed.
	waiters []func(*domain.Entrypoint)
}

func newJob() *job {
	return &job{
		resolved:    make(map[string]string),
		assets:      make(map[string]bool),
		resolveErrs: make(map[string]error),
		starExports: make(map[string]string),
		deps:        make(map[string]domain.ExecDependency),
	}
}

type starSource struct {
	specifier string
	filename  string
}

var assetExtensions = []string{
	".avif", ".bmp", ".css", ".eot", ".gif", ".ico", ".jpeg", ".jpg", ".less", ".mp4", ".otf",
	".png", ".sass", ".scss", ".svg", ".ttf", ".webm", ".webp", ".woff", ".woff2",
}

// isAsset reports whether specifier names a file no execution host can run.
func isAsset(specifier string) bool {
	if i := strings.IndexAny(specifier, "?#"); i >= 0 {
		specifier = specifier[:i]
	}
	dot := strings.LastIndexByte(specifier, '.')
	if dot < 0 || strings.ContainsRune(specifier[dot:], '/') {
		return false
	}
	_, ok := slices.BinarySearch(assetExtensions, strings.ToLower(specifier[dot:]))
	return ok
}

// placeholders returns unresolved values for names that cannot be computed.
func placeholders(names []string, reason string) map[string]domain.Value {
	values := make(map[string]domain.Value, len(names))
	for _, name := range names {
		values[name] = domain.UnresolvedValue(reason)
	}
	return values
}

// reusable reports whether values can be served from the cache without the
// live runtime.
func reusable(values map[string]domain.Value) bool {
	for _, v := range values {
		if hasFunction(v) {
			return false
		}
	}
	return true
}

func hasFunction(v domain.Value) bool {
	switch v.Kind {
	case domain.ValueFunction:
		return true
	case domain.ValueObject:
		for _, item := range v.Items {
			if hasFunction(item) {
				return true
			}
		}
		for _, f := range v.Fields {
			if hasFunction(f) {
				return true
			}
		}
	}
	return false
}

func optionsSalt(opts domain.Options, globals []string) string {
	parts := []string{
		strconv.FormatBool(opts.Evaluate),
		strconv.FormatBool(opts.DisplayName),
		strings.Join(opts.TagSources, ","),
		strings.Join(opts.PureCallees, ","),
		strings.Join(globals, ","),
	}
	return strings.Join(parts, ";")
}
