package errors

import "fmt"

// SiloError is the structured error type threaded through the indexing
// pipeline, storage layer, and silo manager. It carries enough context for
// an activity event (file path, stored key) without requiring callers to
// parse a message string.
type SiloError struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "prepareFile", "flush"
	Key     string // stored key, empty if not file-scoped
	Message string
	Cause   error
	Fatal   bool // true once the recovery policy has escalated to silo error
}

func (e *SiloError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s[%s] %s: %s", e.Kind, e.Key, e.Op, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, e.Message)
}

func (e *SiloError) Unwrap() error {
	return e.Cause
}

func (e *SiloError) Is(target error) bool {
	t, ok := target.(*SiloError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Severity returns the recovery-policy severity for this error's Kind,
// escalated to SeverityFatal if Fatal has been set explicitly (e.g. a
// database error on its second consecutive failure).
func (e *SiloError) Severity() Severity {
	if e.Fatal {
		return SeverityFatal
	}
	return defaultSeverity(e.Kind)
}

// New constructs a SiloError. cause may be nil.
func New(kind Kind, op, key, message string, cause error) *SiloError {
	return &SiloError{Kind: kind, Op: op, Key: key, Message: message, Cause: cause}
}

// TransientFile wraps a stat/read/permission failure for a single file.
func TransientFile(op, key string, cause error) *SiloError {
	return New(KindTransientFile, op, key, cause.Error(), cause)
}

// ParseChunker wraps a chunker failure; the file's chunk list collapses to empty.
func ParseChunker(op, key string, cause error) *SiloError {
	return New(KindParseChunker, op, key, cause.Error(), cause)
}

// Embedding wraps a model-load, shape-mismatch, or server-unreachable failure.
func Embedding(op, key string, cause error) *SiloError {
	return New(KindEmbedding, op, key, cause.Error(), cause)
}

// Database wraps a failed transaction. fatal marks the silo-ending case
// (second consecutive failure on the same batch).
func Database(op string, cause error, fatal bool) *SiloError {
	e := New(KindDatabase, op, "", cause.Error(), cause)
	e.Fatal = fatal
	return e
}

// Invariant wraps a stored-key or dimension invariant violation.
func Invariant(op, key, message string) *SiloError {
	return New(KindInvariant, op, key, message, nil)
}

// IsFatal reports whether err (if a *SiloError) has escalated to fatal.
func IsFatal(err error) bool {
	var se *SiloError
	if e, ok := err.(*SiloError); ok {
		se = e
	} else {
		return false
	}
	return se.Severity() == SeverityFatal
}

// GetKind extracts the Kind from err, or "" if err is not a *SiloError.
func GetKind(err error) Kind {
	if e, ok := err.(*SiloError); ok {
		return e.Kind
	}
	return ""
}
