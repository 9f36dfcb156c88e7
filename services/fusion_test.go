package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erickguan/agentic-finance-analysis/models"
)

// fakeCollector answers only the categories its fields populate; everything
// else reports ErrUnsupported, the way a thin provider adapter would.
type fakeCollector struct {
	name        string
	unavailable bool

	quote    *models.Quote
	quoteErr error

	financials *models.FinancialData
	news       []models.NewsArticle
	analyst    *models.AnalystData
	matches    []models.CompanyMatch
}

func (f *fakeCollector) Name() string    { return f.name }
func (f *fakeCollector) Available() bool { return !f.unavailable }

func (f *fakeCollector) Quote(context.Context, string) (*models.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	if f.quote == nil {
		return nil, ErrUnsupported
	}
	return f.quote, nil
}

func (f *fakeCollector) Profile(context.Context, string) (*models.CompanyProfile, error) {
	return nil, ErrUnsupported
}

func (f *fakeCollector) History(context.Context, string, int) (*models.HistoricalData, error) {
	return nil, ErrUnsupported
}

func (f *fakeCollector) Financials(context.Context, string) (*models.FinancialData, error) {
	if f.financials == nil {
		return nil, ErrUnsupported
	}
	return f.financials, nil
}

func (f *fakeCollector) News(context.Context, string, int) ([]models.NewsArticle, error) {
	if f.news == nil {
		return nil, ErrUnsupported
	}
	return f.news, nil
}

func (f *fakeCollector) Analyst(context.Context, string) (*models.AnalystData, error) {
	if f.analyst == nil {
		return nil, ErrUnsupported
	}
	return f.analyst, nil
}

func (f *fakeCollector) Search(context.Context, string) ([]models.CompanyMatch, error) {
	if f.matches == nil {
		return nil, ErrUnsupported
	}
	return f.matches, nil
}

func testOrder() FusionOrder {
	names := []string{"primary", "secondary"}
	return FusionOrder{
		Quote:     names,
		Profile:   names,
		History:   names,
		Financial: names,
		News:      names,
		Analyst:   names,
		Search:    names,
	}
}

func TestFetchComprehensiveQuoteFailover(t *testing.T) {
	primary := &fakeCollector{name: "primary", quoteErr: errors.New("rate limited")}
	secondary := &fakeCollector{
		name:  "secondary",
		quote: &models.Quote{Symbol: "AAPL", Price: 187.50},
	}
	agg := NewAggregator([]Collector{primary, secondary}, testOrder(), time.Second)

	record := agg.FetchComprehensive(context.Background(), "aapl")
	if record.Symbol != "AAPL" {
		t.Fatalf("symbol not uppercased: %q", record.Symbol)
	}
	if record.Quote == nil || record.Quote.Price != 187.50 {
		t.Fatalf("failover did not reach secondary: %+v", record.Quote)
	}
	if record.Quote.Source != "secondary" {
		t.Fatalf("quote source %q, want secondary", record.Quote.Source)
	}
	found := false
	for _, s := range record.SourcesUsed {
		if s == "secondary" {
			found = true
		}
		if s == "primary" {
			t.Fatal("failed collector credited as source")
		}
	}
	if !found {
		t.Fatalf("sources_used missing secondary: %v", record.SourcesUsed)
	}
}

func TestFetchComprehensiveSkipsUnavailableCollectors(t *testing.T) {
	offline := &fakeCollector{
		name:        "primary",
		unavailable: true,
		quote:       &models.Quote{Symbol: "AAPL", Price: 1},
	}
	online := &fakeCollector{
		name:  "secondary",
		quote: &models.Quote{Symbol: "AAPL", Price: 2},
	}
	agg := NewAggregator([]Collector{offline, online}, testOrder(), time.Second)

	record := agg.FetchComprehensive(context.Background(), "AAPL")
	if record.Quote == nil || record.Quote.Source != "secondary" {
		t.Fatalf("unavailable collector was consulted: %+v", record.Quote)
	}
}

func TestFetchComprehensiveAllEmpty(t *testing.T) {
	agg := NewAggregator(nil, testOrder(), time.Second)

	record := agg.FetchComprehensive(context.Background(), "AAPL")
	if record == nil {
		t.Fatal("expected a record even with no collectors")
	}
	if record.Quote != nil || record.Company != nil || len(record.News) != 0 {
		t.Fatalf("empty registry produced data: %+v", record)
	}
	if len(record.SourcesUsed) != 0 {
		t.Fatalf("phantom sources: %v", record.SourcesUsed)
	}
}

func TestFinancialsMergeAcrossCollectors(t *testing.T) {
	primary := &fakeCollector{
		name:       "primary",
		financials: &models.FinancialData{Metrics: &models.KeyMetrics{PERatio: 28.5}},
	}
	secondary := &fakeCollector{
		name:       "secondary",
		financials: &models.FinancialData{Ratios: &models.FinancialRatios{CurrentRatio: 1.2}},
	}
	agg := NewAggregator([]Collector{primary, secondary}, testOrder(), time.Second)

	record := agg.FetchComprehensive(context.Background(), "AAPL")
	fin := record.Financial
	if fin == nil {
		t.Fatal("merged financials missing")
	}
	if fin.Metrics == nil || fin.Metrics.PERatio != 28.5 {
		t.Fatalf("metrics lost in merge: %+v", fin.Metrics)
	}
	if fin.Ratios == nil || fin.Ratios.CurrentRatio != 1.2 {
		t.Fatalf("ratios lost in merge: %+v", fin.Ratios)
	}
	if len(fin.Sources) != 2 {
		t.Fatalf("expected both collectors credited, got %v", fin.Sources)
	}
}

func TestNewsAggregatesAndDedupes(t *testing.T) {
	primary := &fakeCollector{
		name: "primary",
		news: []models.NewsArticle{
			{Title: "Apple beats earnings estimates this quarter"},
		},
	}
	secondary := &fakeCollector{
		name: "secondary",
		news: []models.NewsArticle{
			{Title: "Apple beats earnings estimates this qtr"},
			{Title: "Apple supply chain expands to India"},
		},
	}
	agg := NewAggregator([]Collector{primary, secondary}, testOrder(), time.Second)

	record := agg.FetchComprehensive(context.Background(), "AAPL")
	if len(record.News) != 2 {
		t.Fatalf("expected 2 deduped articles, got %d", len(record.News))
	}
	for _, article := range record.News {
		if article.Source == "" {
			t.Fatalf("article missing source attribution: %+v", article)
		}
	}
}

func TestSearchCompaniesDedupesBySymbol(t *testing.T) {
	primary := &fakeCollector{
		name: "primary",
		matches: []models.CompanyMatch{
			{Symbol: "AAPL", Name: "Apple Inc", Score: 0.9},
			{Symbol: "APLE", Name: "Apple Hospitality", Score: 0.4},
		},
	}
	secondary := &fakeCollector{
		name: "secondary",
		matches: []models.CompanyMatch{
			{Symbol: "aapl", Name: "Apple Incorporated", Score: 1.0},
		},
	}
	agg := NewAggregator([]Collector{primary, secondary}, testOrder(), time.Second)

	matches := agg.SearchCompanies(context.Background(), "apple")
	if len(matches) != 2 {
		t.Fatalf("expected 2 unique symbols, got %d", len(matches))
	}
	if matches[0].Symbol != "AAPL" || matches[0].Name != "Apple Inc" {
		t.Fatalf("preference order broken: %+v", matches[0])
	}
	if matches[1].Symbol != "APLE" {
		t.Fatalf("expected APLE second by score, got %+v", matches[1])
	}
}
