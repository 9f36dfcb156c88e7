package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erickguan/agentic-finance-analysis/internal/logger"
	"github.com/erickguan/agentic-finance-analysis/models"
	"github.com/erickguan/agentic-finance-analysis/utils"
)

// NewsSource supplies best-effort web-scraped news for a symbol.
type NewsSource interface {
	FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

const (
	filteredSearchK   = 10
	fallbackSearchK   = 5
	minRelevance      = 0.7
	minAdjustedScore  = 0.6
	diversityPenalty  = 0.1
	maxSelectedChunks = 8
	budgetStopRatio   = 0.8
	webNewsLimit      = 5
)

// Retriever turns a query (and optionally a symbol) into a bounded,
// deduplicated, ranked body of context text. The retrieval stages run
// strictly in order: resolve symbol, refresh backing data, vector search,
// recency augmentation, budget-constrained selection, formatting.
type Retriever struct {
	store   *VectorStore
	fusion  *Aggregator
	scraper NewsSource

	recordCache *TTLCache[*models.StockRecord]
	newsCache   *TTLCache[[]models.NewsArticle]
	recordTTL   time.Duration
	newsTTL     time.Duration
}

func NewRetriever(store *VectorStore, fusion *Aggregator, scraper NewsSource, recordTTL, newsTTL time.Duration) *Retriever {
	if recordTTL <= 0 {
		recordTTL = 30 * time.Minute
	}
	if newsTTL <= 0 {
		newsTTL = 15 * time.Minute
	}
	return &Retriever{
		store:       store,
		fusion:      fusion,
		scraper:     scraper,
		recordCache: NewTTLCache[*models.StockRecord](),
		newsCache:   NewTTLCache[[]models.NewsArticle](),
		recordTTL:   recordTTL,
		newsTTL:     newsTTL,
	}
}

// RetrieveContext is a total function over its inputs: the result is always
// a populated bundle, an empty bundle with a reason, or a needs-clarification
// bundle. It never fails for "not found".
func (r *Retriever) RetrieveContext(ctx context.Context, query, symbol string, maxContextLength int) *models.ContextBundle {
	tracer := otel.Tracer("context-retriever")
	ctx, span := tracer.Start(ctx, "retriever.retrieve_context")
	defer span.End()

	if maxContextLength <= 0 {
		maxContextLength = 4000
	}

	bundle := &models.ContextBundle{
		Query:     query,
		Symbol:    strings.ToUpper(symbol),
		Timestamp: time.Now(),
		Sources:   []string{},
	}

	// Stage 1: resolve the symbol.
	if bundle.Symbol == "" {
		resolved, candidates := r.resolveSymbol(ctx, query)
		bundle.Symbol = resolved
		if resolved == "" {
			bundle.NeedsClarification = true
			bundle.Message = "Could not determine which company the question is about. Please provide a ticker symbol."
			bundle.Candidates = candidates
			span.SetAttributes(attribute.Bool("retriever.needs_clarification", true))
			return bundle
		}
	}
	span.SetAttributes(attribute.String("retriever.symbol", bundle.Symbol))

	// Stage 2: refresh backing data through the cache; ingestion into the
	// vector store is fire-and-forget relative to the retrieval path.
	if record := r.companyData(ctx, bundle.Symbol); record != nil {
		bundle.Record = record
		bundle.Sources = appendUnique(bundle.Sources, record.SourcesUsed...)
	}

	// Stage 3: vector search filtered to the symbol, with one broader
	// unfiltered retry, then the relevance floor.
	chunks := r.store.Search(ctx, query, filteredSearchK, bundle.Symbol)
	if len(chunks) == 0 {
		chunks = r.store.Search(ctx, query, fallbackSearchK, "")
	}
	for _, chunk := range chunks {
		if chunk.Score > minRelevance {
			bundle.Chunks = append(bundle.Chunks, chunk)
		}
	}

	// Stage 4: recency augmentation merges fresh scraped news into the raw
	// bundle, not into the scored chunk list.
	if NeedsRecentNews(query) && r.scraper != nil {
		if news := r.webNews(ctx, bundle.Symbol); len(news) > 0 {
			bundle.WebNews = news
			bundle.Sources = appendUnique(bundle.Sources, "web_scraping")
		}
	}

	// Stage 5: budget-constrained selection with diversity weighting.
	bundle.Selected = selectBestContext(bundle.Chunks, maxContextLength)

	// Stage 6: final formatting.
	bundle.FormattedContext = formatContext(bundle)

	span.SetAttributes(
		attribute.Int("retriever.chunks", len(bundle.Chunks)),
		attribute.Int("retriever.selected", len(bundle.Selected)),
	)
	logger.Info("Retrieved context", "symbol", bundle.Symbol, "chunks", len(bundle.Selected), "sources", len(bundle.Sources))
	return bundle
}

// resolveSymbol tries pattern extraction first, then a company name search
// over the extracted keywords. Returns candidates from the search so a
// needs-clarification response can offer them.
func (r *Retriever) resolveSymbol(ctx context.Context, query string) (string, []models.CompanyMatch) {
	if symbol := ExtractSymbol(query); symbol != "" {
		return symbol, nil
	}

	keywords := ExtractKeywords(query)
	if keywords == "" || r.fusion == nil {
		return "", nil
	}

	matches := r.fusion.SearchCompanies(ctx, keywords)
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Symbol, matches
}

// companyData returns the cached fused record or fetches a fresh one. A
// fresh record is ingested into the vector store on a detached goroutine;
// ingestion failure never fails the retrieval.
func (r *Retriever) companyData(ctx context.Context, symbol string) *models.StockRecord {
	if record, ok := r.recordCache.Get(symbol, r.recordTTL); ok {
		logger.Debug("Record cache hit", "symbol", symbol)
		return record
	}
	if r.fusion == nil {
		return nil
	}

	record := r.fusion.FetchComprehensive(ctx, symbol)
	r.recordCache.Set(symbol, record)

	docs := BuildDocuments(record, time.Now())
	if len(docs) > 0 {
		go func() {
			ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
			defer cancel()
			if err := r.store.Add(ictx, docs); err != nil {
				logger.Warn("Background ingestion failed", "symbol", symbol, "error", err)
			}
		}()
	}

	return record
}

func (r *Retriever) webNews(ctx context.Context, symbol string) []models.NewsArticle {
	news, err := r.newsCache.GetOrRefresh(ctx, symbol, r.newsTTL, func(rctx context.Context) ([]models.NewsArticle, error) {
		return r.scraper.FetchNews(rctx, symbol, webNewsLimit)
	})
	if err != nil {
		logger.Warn("Web news fetch failed", "symbol", symbol, "error", err)
		return nil
	}
	return news
}

// selectBestContext greedily accepts chunks in descending score order while
// the cumulative length fits the budget. A chunk whose category is already
// represented pays a score penalty, which favors category diversity without
// a hard quota. Selection stops once 8 chunks are accepted or 80% of the
// budget is consumed.
func selectBestContext(chunks []models.ContextChunk, maxLength int) []models.ContextChunk {
	if len(chunks) == 0 {
		return nil
	}

	sorted := append([]models.ContextChunk(nil), chunks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var selected []models.ContextChunk
	totalLength := 0
	seenTypes := make(map[models.DocType]struct{})

	for _, chunk := range sorted {
		chunkLength := len(chunk.Text)
		if totalLength+chunkLength > maxLength {
			continue
		}

		adjusted := chunk.Score
		if _, seen := seenTypes[chunk.Metadata.Type]; seen {
			adjusted -= diversityPenalty
		}
		if adjusted <= minAdjustedScore {
			continue
		}

		selected = append(selected, chunk)
		totalLength += chunkLength
		seenTypes[chunk.Metadata.Type] = struct{}{}

		if len(selected) >= maxSelectedChunks || float64(totalLength) > float64(maxLength)*budgetStopRatio {
			break
		}
	}

	return selected
}

// formatContext renders the bundle for LLM grounding: symbol header,
// enumerated chunks, current market data, sources footer, in that order.
func formatContext(bundle *models.ContextBundle) string {
	var parts []string

	if bundle.Symbol != "" {
		parts = append(parts, fmt.Sprintf("=== CONTEXT FOR %s ===", bundle.Symbol))
	}

	if len(bundle.Selected) > 0 {
		parts = append(parts, "\n--- RELEVANT INFORMATION ---")
		for i, chunk := range bundle.Selected {
			parts = append(parts, fmt.Sprintf("\n%d. [%s]", i+1, strings.ToUpper(string(chunk.Metadata.Type))))
			if !chunk.Metadata.Timestamp.IsZero() {
				parts = append(parts, "   Timestamp: "+chunk.Metadata.Timestamp.Format(time.RFC3339))
			}
			parts = append(parts, "   Content: "+chunk.Text)
		}
	}

	if bundle.Record != nil && bundle.Record.Quote != nil {
		quote := bundle.Record.Quote
		parts = append(parts, "\n--- CURRENT MARKET DATA ---")
		parts = append(parts, fmt.Sprintf("Price: $%.2f", quote.Price))
		parts = append(parts, fmt.Sprintf("Change: %+.2f (%+.2f%%)", quote.Change, quote.ChangePercent))
		if quote.Volume > 0 {
			parts = append(parts, "Volume: "+utils.GroupInt(quote.Volume))
		}
	}

	if len(bundle.Sources) > 0 {
		parts = append(parts, "\n--- DATA SOURCES ---")
		parts = append(parts, "Sources: "+strings.Join(bundle.Sources, ", "))
	}

	return strings.Join(parts, "\n")
}

// CompanySummary returns a display-ready summary built from the fused record.
func (r *Retriever) CompanySummary(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(symbol)
	record := r.companyData(ctx, symbol)
	if record == nil {
		return "", fmt.Errorf("no data available for %s", symbol)
	}
	return FormatStockSummary(record), nil
}

// SearchCompanies exposes company search to the outer layer.
func (r *Retriever) SearchCompanies(ctx context.Context, query string) []models.CompanyMatch {
	if r.fusion == nil {
		return nil
	}
	return r.fusion.SearchCompanies(ctx, query)
}

// RefreshSymbol re-fetches a symbol's data, bypassing the cache, and ingests
// the fresh documents synchronously. Used by the periodic refresher.
func (r *Retriever) RefreshSymbol(ctx context.Context, symbol string) error {
	if r.fusion == nil {
		return fmt.Errorf("no collectors configured")
	}
	symbol = strings.ToUpper(symbol)

	record := r.fusion.FetchComprehensive(ctx, symbol)
	r.recordCache.Set(symbol, record)

	docs := BuildDocuments(record, time.Now())
	if len(docs) == 0 {
		return nil
	}
	return r.store.Add(ctx, docs)
}

// ClearCache drops both the record and news caches.
func (r *Retriever) ClearCache() {
	r.recordCache.Clear()
	r.newsCache.Clear()
	logger.Info("Query cache cleared")
}

// CacheStats reports both cache occupancies.
func (r *Retriever) CacheStats() map[string]models.CacheStats {
	return map[string]models.CacheStats{
		"records": r.recordCache.Stats(r.recordTTL),
		"news":    r.newsCache.Stats(r.newsTTL),
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		exists := false
		for _, existing := range dst {
			if existing == v {
				exists = true
				break
			}
		}
		if !exists {
			dst = append(dst, v)
		}
	}
	return dst
}
