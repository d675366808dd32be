// Package reconcile brings a silo's database into agreement with disk
// (spec.md §4.E): diff the persisted mtime map against a fresh directory
// walk, prepare and flush adds/updates in batches, and delete anything no
// longer on disk.
package reconcile

import "github.com/siloindex/siloindex/internal/ignore"

// Phase identifies which stage of reconciliation is in progress.
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseIndexing Phase = "indexing"
	PhaseRemoving Phase = "removing"
	PhaseDone     Phase = "done"
)

// Progress reports one step of a Run, suitable for forwarding to a status UI.
type Progress struct {
	Phase   Phase
	Current int
	Total   int
	File    string // path currently being processed, empty outside PhaseIndexing/PhaseRemoving
}

// RootDir is one of a silo's configured source directories.
type RootDir struct {
	Path string // absolute path on disk
}

// Options configures a Reconciler's directory walk.
type Options struct {
	Roots      []RootDir
	DirIgnore  *ignore.Matcher
	FileIgnore *ignore.Matcher
	Extensions *ignore.Extensions
	// BatchSize is how many files are indexed between checks of ctx
	// cancellation; files are not accumulated, each is committed on its own
	// upsert. spec.md §4.E sets this to 50.
	BatchSize int
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// DefaultBatchSize is spec.md §4.E's batch size for adds/updates.
const DefaultBatchSize = 50
