package search

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/siloindex/siloindex/internal/embed"
	"github.com/siloindex/siloindex/internal/store"
)

// SiloIndex is one silo's query-time dependencies: its storage handle, its
// embedder, and the query prefix its embedding model expects prepended to
// query text (the registry's QueryPrefix, e.g. "search_query: ").
type SiloIndex struct {
	ID          string
	Store       *store.Silo
	Embedder    embed.Embedder
	QueryPrefix string
}

// Engine runs the five-signal hybrid search procedure against one or more
// silos and calibrates results across silos before returning the combined,
// ranked file list.
type Engine struct {
	rrfConstant int
}

// NewEngine returns an Engine using the spec's default RRF constant (60).
func NewEngine() *Engine {
	return &Engine{rrfConstant: DefaultRRFConstant}
}

// siloOutcome is one silo's search result plus the mean cosine similarity
// needed for cross-silo calibration.
type siloOutcome struct {
	siloID     string
	files      []*FileResult
	meanCosine float64
}

// Search executes the per-silo procedure against every silo matching
// opts.SiloFilter (all silos if empty), calibrates scores across silos when
// more than one contributed results, and returns the combined file list
// truncated to opts.MaxResults.
func (e *Engine) Search(ctx context.Context, silos []SiloIndex, opts Options) ([]*FileResult, error) {
	opts = opts.applyDefaults()

	targets := silos
	if len(opts.SiloFilter) > 0 {
		allow := make(map[string]bool, len(opts.SiloFilter))
		for _, id := range opts.SiloFilter {
			allow[id] = true
		}
		targets = targets[:0:0]
		for _, si := range silos {
			if allow[si.ID] {
				targets = append(targets, si)
			}
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	outcomes := make([]*siloOutcome, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, si := range targets {
		i, si := i, si
		g.Go(func() error {
			out, err := e.searchSilo(gctx, si, opts)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := calibrateAndCombine(outcomes)
	if len(combined) > opts.MaxResults {
		combined = combined[:opts.MaxResults]
	}
	return combined, nil
}

// searchSilo runs the eight-step per-silo procedure from spec.md §4.D.
func (e *Engine) searchSilo(ctx context.Context, si SiloIndex, opts Options) (*siloOutcome, error) {
	query := strings.TrimSpace(opts.Query)
	limit := opts.chunkLimit()

	trigramQuery := sanitizeTrigramQuery(query)
	skipKeyword := query == "" // edge case: empty query text -> vector-only path
	skipTrigram := skipKeyword || trigramQuery == ""

	in := fusionInput{
		semantic:     newRankedSignal(),
		bm25:         newRankedSignal(),
		trigram:      newRankedSignal(),
		filepath:     newRankedSignal(),
		tags:         newRankedSignal(),
		matchedTerms: make(map[int64][]string),
		headingDepth: make(map[int64]int),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embedText := si.QueryPrefix + query
		vec, err := si.Embedder.Embed(gctx, embedText)
		if err != nil {
			return nil // FTS/embedding failures drop the signal, not the search
		}
		results, err := si.Store.SearchVector(gctx, vec, limit)
		if err != nil {
			return nil
		}
		for i, r := range results {
			in.semantic.rank[r.ID] = i + 1
			in.semantic.score[r.ID] = float64(r.Score)
		}
		return nil
	})

	if !skipKeyword {
		g.Go(func() error {
			results, err := si.Store.SearchBM25(gctx, query, limit)
			if err != nil {
				return nil
			}
			for i, r := range results {
				in.bm25.rank[r.ID] = i + 1
				in.bm25.score[r.ID] = r.Score
				in.matchedTerms[r.ID] = r.MatchedTerms
			}
			return nil
		})

		g.Go(func() error {
			results, err := si.Store.SearchTags(gctx, query, limit)
			if err != nil {
				return nil
			}
			for i, r := range results {
				in.tags.rank[r.ID] = i + 1
				in.tags.score[r.ID] = r.Score
			}
			return nil
		})
	}

	if !skipTrigram {
		g.Go(func() error {
			results, err := si.Store.SearchTrigram(gctx, trigramQuery, limit)
			if err != nil {
				return nil
			}
			for i, r := range results {
				in.trigram.rank[r.ID] = i + 1
				in.trigram.score[r.ID] = r.Score
			}
			return nil
		})

		g.Go(func() error {
			fileMatches, err := si.Store.SearchFilepathTrigram(gctx, trigramQuery, limit)
			if err != nil {
				return nil
			}
			fileIDs := make([]int64, len(fileMatches))
			rankByFileID := make(map[int64]int, len(fileMatches))
			for i, r := range fileMatches {
				fileIDs[i] = r.ID
				rankByFileID[r.ID] = i + 1
			}
			pathsByFileID, err := si.Store.FilePathsByID(gctx, fileIDs)
			if err != nil {
				return nil
			}
			scoreByFileID := make(map[int64]float64, len(fileMatches))
			for _, r := range fileMatches {
				scoreByFileID[r.ID] = r.Score
			}
			rankByPath := make(map[store.StoredKey]int, len(pathsByFileID))
			scoreByPath := make(map[store.StoredKey]float64, len(pathsByFileID))
			for fileID, path := range pathsByFileID {
				rankByPath[path] = rankByFileID[fileID]
				scoreByPath[path] = scoreByFileID[fileID]
			}

			chunks, err := si.Store.ChunksForFiles(gctx, fileIDs)
			if err != nil {
				return nil
			}
			// Every chunk in a matched file inherits that file's rank/score.
			for _, c := range chunks {
				in.filepath.rank[c.ID] = rankByPath[c.FilePath]
				in.filepath.score[c.ID] = scoreByPath[c.FilePath]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	allIDs := unionIDs(in)
	chunksByID, err := fetchChunks(ctx, si.Store, allIDs)
	if err != nil {
		return nil, err
	}
	for id, c := range chunksByID {
		in.headingDepth[id] = c.HeadingDepth
	}

	breakdowns := fuse(in, opts.Weights, e.rrfConstant, limit)
	topIDs := topChunkIDs(breakdowns, limit)

	files, hasVector := aggregateFiles(si.ID, topIDs, breakdowns, chunksByID, in.matchedTerms)

	meanCosine := 0.0
	if hasVector {
		var sum float64
		var n int
		for _, f := range files {
			if best := bestVectorScore(f, in); best > 0 {
				sum += best
				n++
			}
		}
		if n > 0 {
			meanCosine = sum / float64(n)
		}
	}

	return &siloOutcome{siloID: si.ID, files: files, meanCosine: meanCosine}, nil
}

// sanitizeTrigramQuery drops terms shorter than three characters from the
// query, per spec.md §4.D step 2; escaping/quoting is handled by the store
// layer itself.
func sanitizeTrigramQuery(query string) string {
	fields := strings.Fields(query)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTrigramTermLen {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func unionIDs(in fusionInput) []int64 {
	seen := make(map[int64]struct{})
	for _, sig := range []rankedSignal{in.semantic, in.bm25, in.trigram, in.filepath, in.tags} {
		for id := range sig.rank {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func fetchChunks(ctx context.Context, s *store.Silo, ids []int64) (map[int64]*store.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	chunks, err := s.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*store.Chunk, len(chunks))
	for _, c := range chunks {
		out[c.ID] = c
	}
	return out, nil
}

// aggregateFiles groups the top chunks by file, scoring each file by its
// best chunk's rrf, keeping the top 5 chunks, and classifying matchType.
func aggregateFiles(
	siloID string,
	topIDs []int64,
	breakdowns map[int64]*ScoreBreakdown,
	chunksByID map[int64]*store.Chunk,
	matchedTerms map[int64][]string,
) (results []*FileResult, hasVectorMatch bool) {
	byFile := make(map[store.StoredKey]*FileResult)

	for _, id := range topIDs {
		chunk, ok := chunksByID[id]
		if !ok {
			continue
		}
		bd := breakdowns[id]

		cr := &ChunkResult{Chunk: chunk, MatchedTerms: matchedTerms[id], Breakdown: *bd}

		fr, ok := byFile[chunk.FilePath]
		if !ok {
			fr = &FileResult{SiloID: siloID, FilePath: chunk.FilePath}
			byFile[chunk.FilePath] = fr
		}
		fr.Chunks = append(fr.Chunks, cr)

		if bd.RRF > fr.RRF {
			fr.RRF = bd.RRF
		}
		if bd.Semantic.Rank > 0 {
			hasVectorMatch = true
		}
	}

	results = make([]*FileResult, 0, len(byFile))
	for _, fr := range byFile {
		sort.Slice(fr.Chunks, func(i, j int) bool {
			return fr.Chunks[i].Breakdown.RRF > fr.Chunks[j].Breakdown.RRF
		})
		if len(fr.Chunks) > maxChunksPerFile {
			fr.Chunks = fr.Chunks[:maxChunksPerFile]
		}

		hasSemantic, hasKeyword := false, false
		for _, c := range fr.Chunks {
			if c.Breakdown.Semantic.Rank > 0 {
				hasSemantic = true
			}
			if c.Breakdown.BM25.Rank > 0 || c.Breakdown.Trigram.Rank > 0 ||
				c.Breakdown.Filepath.Rank > 0 || c.Breakdown.Tags.Rank > 0 {
				hasKeyword = true
			}
		}
		switch {
		case hasSemantic && hasKeyword:
			fr.MatchType = MatchBoth
		case hasSemantic:
			fr.MatchType = MatchSemantic
		default:
			fr.MatchType = MatchKeyword
		}

		results = append(results, fr)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRF != results[j].RRF {
			return results[i].RRF > results[j].RRF
		}
		return results[i].FilePath < results[j].FilePath
	})
	return results, hasVectorMatch
}

// bestVectorScore returns the highest semantic similarity among a file's
// chunks, the "best vector-matched chunk" spec.md's calibration step uses.
func bestVectorScore(fr *FileResult, in fusionInput) float64 {
	best := 0.0
	for _, c := range fr.Chunks {
		if s := in.semantic.score[c.Chunk.ID]; s > best {
			best = s
		}
	}
	return best
}
