// Package ignore implements the basename-matching ignore patterns shared by
// the reconciler's disk walk and the filesystem watcher (spec §4.E, §4.F):
// case-insensitive exact, prefix (temp*), suffix (*cache), and contains
// (*temp*) matches against a path's final path element.
package ignore

import "strings"

// Matcher holds a compiled set of basename patterns.
type Matcher struct {
	patterns []string // each lowercased, kind implied by leading/trailing '*'
}

// New compiles patterns into a Matcher. Patterns are matched case-insensitively.
func New(patterns []string) *Matcher {
	m := &Matcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			m.patterns = append(m.patterns, strings.ToLower(p))
		}
	}
	return m
}

// Match reports whether basename matches any compiled pattern.
func (m *Matcher) Match(basename string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	name := strings.ToLower(basename)
	for _, p := range m.patterns {
		if matchOne(name, p) {
			return true
		}
	}
	return false
}

func matchOne(name, pattern string) bool {
	prefix := strings.HasPrefix(pattern, "*")
	suffix := strings.HasSuffix(pattern, "*")
	switch {
	case prefix && suffix && len(pattern) > 1:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case suffix:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	case prefix:
		return strings.HasSuffix(name, pattern[1:])
	default:
		return name == pattern
	}
}

// DefaultDirPatterns are folder basenames ignored even with no configured
// ignore list: version control and dependency directories no project wants
// walked or watched.
var DefaultDirPatterns = []string{
	".git", "node_modules", "vendor", "__pycache__", ".venv", "venv",
	"dist", "build", "target", ".cache",
}

// Extensions is an extension whitelist; a nil or empty Extensions matches
// every extension (no filtering).
type Extensions struct {
	allow map[string]struct{}
}

// NewExtensions compiles a whitelist of extensions (with or without the
// leading dot; case-insensitive).
func NewExtensions(exts []string) *Extensions {
	if len(exts) == 0 {
		return &Extensions{}
	}
	allow := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allow[e] = struct{}{}
	}
	return &Extensions{allow: allow}
}

// Allowed reports whether ext (as returned by filepath.Ext, including the
// leading dot) passes the whitelist.
func (e *Extensions) Allowed(ext string) bool {
	if e == nil || len(e.allow) == 0 {
		return true
	}
	_, ok := e.allow[strings.ToLower(ext)]
	return ok
}
