// Package scanner walks a root directory to discover indexable files,
// honoring folder- and file-basename ignore patterns and an extension
// whitelist, the way spec.md §4.E's reconciler requires. It reads only the
// first 512 bytes of each candidate file, to skip binaries, and reports
// path, mtime and size.
package scanner

import (
	"time"

	"github.com/siloindex/siloindex/internal/ignore"
)

// FileInfo is one discovered, non-ignored file.
type FileInfo struct {
	AbsPath string // absolute path on disk
	RelPath string // slash-separated, relative to the scanned root
	ModTime time.Time
	Size    int64
}

// Options configures a walk of a single root directory.
type Options struct {
	// DirIgnore matches folder basenames to skip (and not descend into).
	DirIgnore *ignore.Matcher
	// FileIgnore matches file basenames to skip.
	FileIgnore *ignore.Matcher
	// Extensions whitelists file extensions to include; empty means all.
	Extensions *ignore.Extensions
	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool
	// MaxFileSize skips files larger than this many bytes (0 = DefaultMaxFileSize).
	MaxFileSize int64
}

// Result is a streamed item from Walk: either a discovered file or a
// non-fatal per-path error (permission denied, broken symlink, ...).
type Result struct {
	File *FileInfo
	Err  error
}

// DefaultMaxFileSize is applied when Options.MaxFileSize is zero.
const DefaultMaxFileSize = 10 * 1024 * 1024
