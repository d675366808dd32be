package embed

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds the underlying Embedder an isolate should serialize access
// to. It is called lazily, on first use and again after an unexpected exit.
type Factory func(ctx context.Context) (Embedder, error)

type isolateJob struct {
	ctx      context.Context
	texts    []string
	resultCh chan isolateResult
}

type isolateResult struct {
	vectors [][]float32
	err     error
}

// isolate is a single worker goroutine serializing every embedding call for
// one model ID. The underlying runtime a bundled model depends on has
// global mutable state that is not safe under concurrent use, so every
// instance sharing a model ID funnels through this one queue.
type isolate struct {
	modelID string
	factory Factory

	jobs chan isolateJob
	done chan struct{}

	mu       sync.Mutex
	refCount int
	dead     bool
}

func newIsolate(modelID string, factory Factory) *isolate {
	iso := &isolate{
		modelID: modelID,
		factory: factory,
		jobs:    make(chan isolateJob),
		done:    make(chan struct{}),
	}
	go iso.run()
	return iso
}

func (iso *isolate) run() {
	defer close(iso.done)

	var embedder Embedder
	for job := range iso.jobs {
		if embedder == nil {
			var loaded Embedder
			err := RetryWithBackoff(job.ctx, DefaultRetryConfig(), func() error {
				e, err := iso.factory(job.ctx)
				if err != nil {
					return err
				}
				loaded = e
				return nil
			})
			if err != nil {
				job.resultCh <- isolateResult{err: fmt.Errorf("isolate %q: failed to load model: %w", iso.modelID, err)}
				continue
			}
			embedder = loaded
		}

		vecs, err := embedder.EmbedBatch(job.ctx, job.texts)
		if err != nil {
			// The underlying runtime may have entered an unrecoverable state;
			// drop the instance so the next job transparently re-spawns it.
			_ = embedder.Close()
			embedder = nil
			job.resultCh <- isolateResult{err: fmt.Errorf("isolate %q: %w", iso.modelID, err)}
			continue
		}
		job.resultCh <- isolateResult{vectors: vecs}
	}

	if embedder != nil {
		_ = embedder.Close()
	}
}

func (iso *isolate) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resultCh := make(chan isolateResult, 1)
	select {
	case iso.jobs <- isolateJob{ctx: ctx, texts: texts, resultCh: resultCh}:
	case <-iso.done:
		return nil, fmt.Errorf("isolate %q has exited", iso.modelID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-resultCh:
		return r.vectors, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (iso *isolate) stop() {
	close(iso.jobs)
	<-iso.done
}

// IsolateManager keys isolates by model ID and shares one isolate across
// every instance requesting the same model; the isolate terminates only
// once the last instance disposes.
type IsolateManager struct {
	mu       sync.Mutex
	isolates map[string]*isolate
}

// NewIsolateManager creates an empty isolate manager.
func NewIsolateManager() *IsolateManager {
	return &IsolateManager{isolates: make(map[string]*isolate)}
}

// IsolatedEmbedder wraps an Embedder whose Embed/EmbedBatch calls are
// funneled through a shared per-model isolate, and whose Close releases
// this instance's reference rather than necessarily stopping the isolate.
type IsolatedEmbedder struct {
	mgr     *IsolateManager
	iso     *isolate
	modelID string
	dims    int
	maxTok  int

	mu     sync.Mutex
	closed bool
}

var _ Embedder = (*IsolatedEmbedder)(nil)

// Acquire returns an Embedder backed by the isolate for modelID, creating
// the isolate (and its factory-deferred underlying Embedder) on first use.
func (m *IsolateManager) Acquire(modelID string, dims, maxTokens int, factory Factory) *IsolatedEmbedder {
	m.mu.Lock()
	iso, ok := m.isolates[modelID]
	if !ok {
		iso = newIsolate(modelID, factory)
		m.isolates[modelID] = iso
	}
	iso.mu.Lock()
	iso.refCount++
	iso.mu.Unlock()
	m.mu.Unlock()

	return &IsolatedEmbedder{mgr: m, iso: iso, modelID: modelID, dims: dims, maxTok: maxTokens}
}

// Embed generates an embedding for a single text via the shared isolate.
func (e *IsolatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts via the shared isolate.
func (e *IsolatedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.Unlock()

	return e.iso.embedBatch(ctx, texts)
}

// Dimensions returns the embedding dimension.
func (e *IsolatedEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *IsolatedEmbedder) ModelName() string { return e.modelID }

// MaxTokens returns the model's technical max context.
func (e *IsolatedEmbedder) MaxTokens() int { return e.maxTok }

// Close releases this instance's reference to the shared isolate, stopping
// the isolate once the last referencing instance has closed. Idempotent.
func (e *IsolatedEmbedder) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	iso := e.iso
	iso.mu.Lock()
	iso.refCount--
	last := iso.refCount <= 0
	iso.mu.Unlock()

	if !last {
		return nil
	}

	e.mgr.mu.Lock()
	if e.mgr.isolates[e.modelID] == iso {
		delete(e.mgr.isolates, e.modelID)
	}
	e.mgr.mu.Unlock()

	iso.stop()
	return nil
}
