// Package errors provides the structured error taxonomy used across every
// silo component: transient file errors, parse/chunker errors, embedding
// errors, database errors, and invariant violations.
package errors

// Kind classifies an error into one of the recovery-policy buckets a silo
// uses to decide whether to skip, retry, warn, or enter the error state.
type Kind string

const (
	// KindTransientFile covers a file vanishing between stat and read, or
	// permission denied. Always recovered locally: skip the file, log,
	// emit an activity error event, continue.
	KindTransientFile Kind = "TRANSIENT_FILE"

	// KindParseChunker covers a chunker producing no usable structure.
	// The file is treated as having zero chunks; existing rows for its
	// stored key are removed.
	KindParseChunker Kind = "PARSE_CHUNKER"

	// KindEmbedding covers model-not-loaded, batch shape mismatch, or an
	// unreachable embedding server. Surfaced per file; the silo continues.
	KindEmbedding Kind = "EMBEDDING"

	// KindDatabase covers a failed transaction. The batch is retried at
	// most once; persistent failure marks the silo in the error state.
	KindDatabase Kind = "DATABASE"

	// KindInvariant covers a stored key outside the silo's configured
	// directories, or a dimension mismatch against silo meta. The specific
	// operation fails without touching the database.
	KindInvariant Kind = "INVARIANT"
)

// Severity describes how a Kind should propagate to the caller.
type Severity string

const (
	// SeverityRecovered means the condition was handled locally and the
	// pipeline continues without surfacing anything beyond an activity event.
	SeverityRecovered Severity = "RECOVERED"
	// SeveritySurfaced means the caller (silo manager, reconciler) must
	// observe and react, e.g. a non-fatal model-mismatch warning.
	SeveritySurfaced Severity = "SURFACED"
	// SeverityFatal means the silo must transition to the error state.
	SeverityFatal Severity = "FATAL"
)

func defaultSeverity(k Kind) Severity {
	switch k {
	case KindTransientFile, KindParseChunker, KindEmbedding:
		return SeverityRecovered
	case KindDatabase, KindInvariant:
		return SeveritySurfaced
	default:
		return SeveritySurfaced
	}
}
