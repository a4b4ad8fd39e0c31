package domain

import (
	"go.trai.ch/zerr"
)

var (
	// ErrExportNotFound is returned when a module is asked for an export it does not declare.
	ErrExportNotFound = zerr.New("required export not found")

	// ErrUndeclaredReference is returned when kept code references a name that is neither
	// declared, imported nor a known host global.
	ErrUndeclaredReference = zerr.New("reference to undeclared identifier")

	// ErrModuleResolution is returned when an import specifier cannot be mapped to a file.
	ErrModuleResolution = zerr.New("cannot resolve module")

	// ErrFileRead is returned when a source file cannot be read.
	ErrFileRead = zerr.New("failed to read file")

	// ErrParse is returned when a source file cannot be parsed.
	ErrParse = zerr.New("failed to parse module")

	// ErrEvaluation is returned when sandboxed code throws.
	ErrEvaluation = zerr.New("evaluation failed")

	// ErrEvaluationTimeout is returned when sandboxed code exceeds its execution limit.
	ErrEvaluationTimeout = zerr.New("evaluation timed out")

	// ErrUnresolvedExpression is returned when an interpolation cannot be computed statically
	// and no runtime substitution is possible.
	ErrUnresolvedExpression = zerr.New("expression cannot be resolved statically")

	// ErrUndefinedInterpolation is returned when an interpolation evaluates to undefined.
	ErrUndefinedInterpolation = zerr.New("interpolation evaluated to undefined")

	// ErrCyclicDependency marks a dependency cycle broken with placeholders. It is reported as a
	// warning diagnostic, never returned as a failure.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrDependencyFailed is returned when a module cannot be evaluated because one of its
	// dependencies failed.
	ErrDependencyFailed = zerr.New("dependency failed")

	// ErrSchedulerStalled is returned when the action queue drains before the root resolves.
	ErrSchedulerStalled = zerr.New("scheduler stalled before the root entrypoint resolved")

	// ErrCacheRead is returned when a persisted cache entry cannot be read.
	ErrCacheRead = zerr.New("failed to read cache entry")

	// ErrCacheWrite is returned when a cache entry cannot be persisted.
	ErrCacheWrite = zerr.New("failed to write cache entry")

	// ErrCacheDecode is returned when a persisted cache entry is corrupt.
	ErrCacheDecode = zerr.New("failed to decode cache entry")

	// ErrCacheBackend is returned when the configured cache backend cannot be reached.
	ErrCacheBackend = zerr.New("cache backend unavailable")

	// ErrConfigRead is returned when the configuration file cannot be read.
	ErrConfigRead = zerr.New("failed to read configuration")

	// ErrConfigParse is returned when the configuration file is invalid.
	ErrConfigParse = zerr.New("failed to parse configuration")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoInputs is returned when a command needs input files and none were given.
	ErrNoInputs = zerr.New("no input files specified")

	// ErrOutputWrite is returned when an output file cannot be written.
	ErrOutputWrite = zerr.New("failed to write output")

	// ErrWatch is returned when the source tree cannot be watched.
	ErrWatch = zerr.New("failed to watch sources")

	// ErrBuildFailed is returned when at least one file failed to transform.
	ErrBuildFailed = zerr.New("build failed")
)

// Fail returns kind with the given key/value metadata attached. errors.Is(err, kind) holds.
func Fail(kind error, kv ...any) error {
	err := zerr.Wrap(kind, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// Because returns an error of the given kind caused by cause. Both kind and
// cause remain reachable through errors.Is and errors.As.
func Because(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &causedError{kind: kind, cause: cause}
}

type causedError struct {
	kind  error
	cause error
}

func (e *causedError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

// Message returns the kind message without the cause chain.
func (e *causedError) Message() string {
	return e.kind.Error()
}

// Unwrap exposes the cause chain. The kind is matched by Is.
func (e *causedError) Unwrap() error {
	return e.cause
}

// Is matches the kind sentinel.
func (e *causedError) Is(target error) bool {
	return target == e.kind
}
