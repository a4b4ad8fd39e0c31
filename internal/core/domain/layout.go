package domain

import (
	"path/filepath"
	"strings"
)

const (
	// SiftDirName is the name of the internal workspace directory.
	SiftDirName = ".sift"

	// CacheDirName is the name of the persistent evaluation cache directory.
	CacheDirName = "cache"

	// OutDirName is the default directory for extracted stylesheets.
	OutDirName = "css"

	// SiftFileName is the name of the project configuration file.
	SiftFileName = "sift.yaml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DefaultExtension is appended to a source filename to name its stylesheet.
	DefaultExtension = ".sift.css"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultSiftPath returns the default root directory for sift metadata.
func DefaultSiftPath() string {
	return SiftDirName
}

// DefaultCachePath returns the default path for the persistent cache.
// It joins .sift and cache.
func DefaultCachePath() string {
	return filepath.Join(SiftDirName, CacheDirName)
}

// DefaultOutPath returns the default output directory for stylesheets.
// It joins .sift and css.
func DefaultOutPath() string {
	return filepath.Join(SiftDirName, OutDirName)
}

// DefaultDebugLogPath returns the default path for the debug log.
func DefaultDebugLogPath() string {
	return filepath.Join(SiftDirName, DebugLogFile)
}

// Within reports whether path is dir or lies below it.
func Within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
