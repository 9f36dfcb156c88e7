package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/erickguan/agentic-finance-analysis/internal/ai"
	"github.com/erickguan/agentic-finance-analysis/internal/logger"
	"github.com/erickguan/agentic-finance-analysis/models"
)

var validSymbol = regexp.MustCompile(`^[A-Z]{1,5}$`)

// VectorStore is a persistent flat similarity index over embedded company
// documents, with a per-symbol secondary index for filtered search. The
// underlying structure is append-only: removing a symbol's documents filters
// the in-memory state immediately and triggers an asynchronous re-embed of
// everything that remains. Flat scan plus rebuild-on-delete is deliberate;
// the corpus stays in the hundreds to low thousands of documents.
//
// Locking: writeMu serializes all mutators (Add, Remove, rebuild) so a
// rebuild can never interleave with an append. mu guards the parallel
// slices; searches take the read lock and may observe a state at most one
// mutation old, which is acceptable.
type VectorStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	dir       string
	dimension int
	embedder  ai.Embedder

	vectors   [][]float32
	documents []models.Document
	symbols   map[string][]int
}

// NewVectorStore loads the persisted index from dir when all four artifacts
// exist and are mutually consistent. Any load failure degrades to an empty
// index with a warning; it never fails construction.
func NewVectorStore(dir string, embedder ai.Embedder) *VectorStore {
	vs := &VectorStore{
		dir:       dir,
		dimension: embedder.Dimension(),
		embedder:  embedder,
		symbols:   make(map[string][]int),
	}

	if err := vs.load(); err != nil {
		logger.Warn("Could not load persisted vector index, starting empty", "dir", dir, "error", err)
		vs.vectors = nil
		vs.documents = nil
		vs.symbols = make(map[string][]int)
	} else if len(vs.documents) > 0 {
		logger.Info("Loaded vector index", "documents", len(vs.documents), "companies", len(vs.symbols))
	}

	return vs
}

// Add embeds and ingests documents in order. The whole batch aborts on any
// embedding failure so the documents and vectors arrays never diverge; there
// is no partial ingestion. Persistence failures are logged and swallowed --
// the in-memory index stays authoritative for the process lifetime.
func (vs *VectorStore) Add(ctx context.Context, docs []models.Document) error {
	accepted := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		doc.Symbol = strings.ToUpper(doc.Symbol)
		if doc.Text == "" || !validSymbol.MatchString(doc.Symbol) {
			logger.Warn("Dropping invalid document", "symbol", doc.Symbol)
			continue
		}
		accepted = append(accepted, doc)
	}
	if len(accepted) == 0 {
		return nil
	}

	texts := make([]string, len(accepted))
	for i, doc := range accepted {
		texts[i] = doc.Text
	}

	vs.writeMu.Lock()
	defer vs.writeMu.Unlock()

	vectors, err := vs.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch of %d documents: %w", len(accepted), err)
	}
	if len(vectors) != len(accepted) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(accepted))
	}
	for i := range vectors {
		if len(vectors[i]) != vs.dimension {
			return fmt.Errorf("embedding dimension %d, index dimension %d", len(vectors[i]), vs.dimension)
		}
		normalize(vectors[i])
	}

	vs.mu.Lock()
	start := len(vs.documents)
	vs.vectors = append(vs.vectors, vectors...)
	vs.documents = append(vs.documents, accepted...)
	for i, doc := range accepted {
		vs.symbols[doc.Symbol] = append(vs.symbols[doc.Symbol], start+i)
	}
	vs.mu.Unlock()

	if err := vs.save(); err != nil {
		logger.Error("Failed to persist vector index", "error", err)
	}

	logger.Info("Indexed documents", "count", len(accepted), "total", start+len(accepted))
	return nil
}

// Search embeds the query and returns the top k documents by inner product
// (cosine similarity after normalization). With a symbol filter the candidate
// set is restricted to that symbol's positions. An empty index or a failed
// query embedding yields an empty result, never an error.
func (vs *VectorStore) Search(ctx context.Context, query string, k int, symbolFilter string) []models.ContextChunk {
	vs.mu.RLock()
	empty := len(vs.documents) == 0
	vs.mu.RUnlock()
	if empty || k <= 0 {
		return nil
	}

	embedded, err := vs.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(embedded) != 1 {
		logger.Warn("Query embedding failed", "error", err)
		return nil
	}
	queryVec := embedded[0]
	if len(queryVec) != vs.dimension {
		logger.Warn("Query embedding dimension mismatch", "got", len(queryVec), "want", vs.dimension)
		return nil
	}
	normalize(queryVec)

	vs.mu.RLock()
	defer vs.mu.RUnlock()

	candidates := make([]int, 0, len(vs.documents))
	if symbolFilter != "" {
		positions, ok := vs.symbols[strings.ToUpper(symbolFilter)]
		if !ok {
			return nil
		}
		candidates = append(candidates, positions...)
	} else {
		for i := range vs.documents {
			candidates = append(candidates, i)
		}
	}

	type scored struct {
		position int
		score    float64
	}
	scores := make([]scored, 0, len(candidates))
	for _, pos := range candidates {
		if pos < 0 || pos >= len(vs.vectors) {
			continue
		}
		scores = append(scores, scored{position: pos, score: dot(queryVec, vs.vectors[pos])})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) > k {
		scores = scores[:k]
	}

	results := make([]models.ContextChunk, 0, len(scores))
	for _, s := range scores {
		doc := vs.documents[s.position]
		results = append(results, models.ContextChunk{
			Text:     doc.Text,
			Metadata: doc,
			Score:    s.score,
			Source:   "vector_db",
		})
	}
	return results
}

// Remove purges all documents for a symbol. The filtered removal applies to
// the in-memory state before returning true; the physical index is then
// re-embedded and rebuilt asynchronously, so the on-disk artifacts lag until
// the rebuild completes. Returns false when the symbol has no documents.
func (vs *VectorStore) Remove(ctx context.Context, symbol string) bool {
	symbol = strings.ToUpper(symbol)

	vs.writeMu.Lock()
	vs.mu.Lock()

	if len(vs.symbols[symbol]) == 0 {
		vs.mu.Unlock()
		vs.writeMu.Unlock()
		return false
	}

	remainingDocs := make([]models.Document, 0, len(vs.documents))
	remainingVecs := make([][]float32, 0, len(vs.vectors))
	newSymbols := make(map[string][]int)
	for i, doc := range vs.documents {
		if doc.Symbol == symbol {
			continue
		}
		newSymbols[doc.Symbol] = append(newSymbols[doc.Symbol], len(remainingDocs))
		remainingDocs = append(remainingDocs, doc)
		remainingVecs = append(remainingVecs, vs.vectors[i])
	}

	vs.documents = remainingDocs
	vs.vectors = remainingVecs
	vs.symbols = newSymbols

	vs.mu.Unlock()
	vs.writeMu.Unlock()

	logger.Info("Removed company documents", "symbol", symbol, "remaining", len(remainingDocs))

	go vs.rebuild(context.WithoutCancel(ctx))
	return true
}

// rebuild re-embeds every remaining document text and swaps in the fresh
// vectors. Full re-embedding is required because the index structure has no
// incremental delete. Serialized against Add and Remove by writeMu.
func (vs *VectorStore) rebuild(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	vs.writeMu.Lock()
	defer vs.writeMu.Unlock()

	vs.mu.RLock()
	texts := make([]string, len(vs.documents))
	for i, doc := range vs.documents {
		texts[i] = doc.Text
	}
	vs.mu.RUnlock()

	if len(texts) > 0 {
		vectors, err := vs.embedder.EmbedTexts(ctx, texts)
		if err != nil || len(vectors) != len(texts) {
			logger.Error("Index rebuild embedding failed, keeping prior vectors", "error", err)
			return
		}
		for i := range vectors {
			normalize(vectors[i])
		}

		vs.mu.Lock()
		vs.vectors = vectors
		vs.mu.Unlock()
	}

	if err := vs.save(); err != nil {
		logger.Error("Failed to persist rebuilt index", "error", err)
		return
	}
	logger.Info("Rebuilt vector index", "documents", len(texts))
}

// Stats reports current index totals.
func (vs *VectorStore) Stats() models.IndexStats {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	companies := make([]string, 0, len(vs.symbols))
	for symbol := range vs.symbols {
		companies = append(companies, symbol)
	}
	sort.Strings(companies)

	return models.IndexStats{
		TotalDocuments: len(vs.documents),
		TotalCompanies: len(vs.symbols),
		IndexSize:      len(vs.vectors),
		Dimension:      vs.dimension,
		Companies:      companies,
	}
}

// Companies returns the symbols currently present in the index.
func (vs *VectorStore) Companies() []string {
	return vs.Stats().Companies
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
