package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/erickguan/agentic-finance-analysis/models"
)

type fakeNewsSource struct {
	articles []models.NewsArticle
	calls    int
}

func (f *fakeNewsSource) FetchNews(_ context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	f.calls++
	if len(f.articles) > limit {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func TestSelectBestContextBudget(t *testing.T) {
	chunk := strings.Repeat("x", 500)
	chunks := make([]models.ContextChunk, 20)
	for i := range chunks {
		chunks[i] = models.ContextChunk{
			Text:     chunk,
			Score:    0.9,
			Metadata: models.Document{Type: models.DocTypeNews},
		}
	}

	selected := selectBestContext(chunks, 2000)
	if len(selected) != 4 {
		t.Fatalf("expected 4 chunks within a 2000-char budget, got %d", len(selected))
	}
	total := 0
	for _, c := range selected {
		total += len(c.Text)
	}
	if total > 2000 {
		t.Fatalf("selection exceeded budget: %d chars", total)
	}
}

func TestSelectBestContextSkipsOversizedKeepsSmaller(t *testing.T) {
	chunks := []models.ContextChunk{
		{Text: strings.Repeat("a", 400), Score: 0.9, Metadata: models.Document{Type: models.DocTypeOverview}},
		{Text: strings.Repeat("b", 700), Score: 0.85, Metadata: models.Document{Type: models.DocTypeFinancial}},
		{Text: strings.Repeat("c", 300), Score: 0.8, Metadata: models.Document{Type: models.DocTypeNews}},
	}

	selected := selectBestContext(chunks, 1000)
	if len(selected) != 2 {
		t.Fatalf("expected oversized middle chunk skipped, got %d selected", len(selected))
	}
	if selected[0].Text[0] != 'a' || selected[1].Text[0] != 'c' {
		t.Fatal("wrong chunks survived the budget")
	}
}

func TestSelectBestContextDiversityPenalty(t *testing.T) {
	chunks := []models.ContextChunk{
		{Text: "first overview", Score: 0.9, Metadata: models.Document{Type: models.DocTypeOverview}},
		{Text: "second overview", Score: 0.65, Metadata: models.Document{Type: models.DocTypeOverview}},
		{Text: "a news item", Score: 0.65, Metadata: models.Document{Type: models.DocTypeNews}},
	}

	selected := selectBestContext(chunks, 4000)
	if len(selected) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(selected))
	}
	if selected[1].Metadata.Type != models.DocTypeNews {
		t.Fatalf("repeat-type chunk beat the diverse one: %+v", selected[1])
	}
}

func TestSelectBestContextEmpty(t *testing.T) {
	if selected := selectBestContext(nil, 4000); selected != nil {
		t.Fatalf("expected nil for no candidates, got %d", len(selected))
	}
}

func TestRetrieveContextNeedsClarification(t *testing.T) {
	vs := newTestStore(t)
	r := NewRetriever(vs, nil, nil, time.Minute, time.Minute)

	bundle := r.RetrieveContext(context.Background(), "Tell me about the market", "", 4000)
	if !bundle.NeedsClarification {
		t.Fatal("expected needs-clarification for an unresolvable query")
	}
	if bundle.Message == "" {
		t.Fatal("clarification bundle missing message")
	}
	if bundle.FormattedContext != "" {
		t.Fatalf("clarification bundle carries context: %q", bundle.FormattedContext)
	}
}

func TestRetrieveContextPipeline(t *testing.T) {
	vs := newTestStore(t)
	query := "latest news about $AAPL earnings"
	err := vs.Add(context.Background(), []models.Document{
		{Text: query, Type: models.DocTypeNews, Symbol: "AAPL"},
		{Text: "Company: Tesla Inc (TSLA)", Type: models.DocTypeOverview, Symbol: "TSLA"},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	collector := &fakeCollector{
		name:  "primary",
		quote: &models.Quote{Symbol: "AAPL", Price: 187.50, Change: 1.25, ChangePercent: 0.67, Volume: 52000000},
	}
	fusion := NewAggregator([]Collector{collector}, testOrder(), time.Second)
	scraper := &fakeNewsSource{articles: []models.NewsArticle{
		{Title: "Apple unveils new chip", Published: time.Now()},
	}}

	r := NewRetriever(vs, fusion, scraper, time.Minute, time.Minute)
	bundle := r.RetrieveContext(context.Background(), query, "", 4000)

	if bundle.NeedsClarification {
		t.Fatal("dollar-tagged symbol should resolve")
	}
	if bundle.Symbol != "AAPL" {
		t.Fatalf("resolved %q, want AAPL", bundle.Symbol)
	}
	if len(bundle.Selected) == 0 || bundle.Selected[0].Score < 0.99 {
		t.Fatalf("exact-match chunk not selected: %+v", bundle.Selected)
	}
	if len(bundle.WebNews) != 1 {
		t.Fatalf("recency query did not pull web news: %d articles", len(bundle.WebNews))
	}

	formatted := bundle.FormattedContext
	for _, want := range []string{
		"=== CONTEXT FOR AAPL ===",
		"--- RELEVANT INFORMATION ---",
		"--- CURRENT MARKET DATA ---",
		"Price: $187.50",
		"Volume: 52,000,000",
		"--- DATA SOURCES ---",
		"web_scraping",
	} {
		if !strings.Contains(formatted, want) {
			t.Fatalf("formatted context missing %q:\n%s", want, formatted)
		}
	}
}

func TestRetrieveContextCachesRecord(t *testing.T) {
	vs := newTestStore(t)
	collector := &fakeCollector{
		name:  "primary",
		quote: &models.Quote{Symbol: "AAPL", Price: 187.50},
	}
	fusion := NewAggregator([]Collector{collector}, testOrder(), time.Second)
	scraper := &fakeNewsSource{}
	r := NewRetriever(vs, fusion, scraper, time.Minute, time.Minute)

	first := r.RetrieveContext(context.Background(), "describe AAPL", "AAPL", 4000)
	second := r.RetrieveContext(context.Background(), "describe AAPL", "AAPL", 4000)
	if first.Record == nil || second.Record == nil {
		t.Fatal("record missing from bundle")
	}
	if first.Record != second.Record {
		t.Fatal("second retrieval did not reuse the cached record")
	}

	stats := r.CacheStats()
	if stats["records"].ValidEntries != 1 {
		t.Fatalf("record cache stats wrong: %+v", stats["records"])
	}

	r.ClearCache()
	if stats := r.CacheStats(); stats["records"].TotalEntries != 0 {
		t.Fatal("clear did not empty the record cache")
	}
}

func TestWebNewsCached(t *testing.T) {
	vs := newTestStore(t)
	scraper := &fakeNewsSource{articles: []models.NewsArticle{{Title: "headline", Published: time.Now()}}}
	r := NewRetriever(vs, nil, scraper, time.Minute, time.Minute)

	r.RetrieveContext(context.Background(), "latest news", "AAPL", 4000)
	r.RetrieveContext(context.Background(), "latest news", "AAPL", 4000)

	if scraper.calls != 1 {
		t.Fatalf("scraper called %d times, want 1 (cached)", scraper.calls)
	}
}

func TestCompanySummaryNoData(t *testing.T) {
	vs := newTestStore(t)
	r := NewRetriever(vs, nil, nil, time.Minute, time.Minute)

	if _, err := r.CompanySummary(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when no data is available")
	}
}
