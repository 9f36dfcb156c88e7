package services

import (
	"strings"
	"testing"
	"time"

	"github.com/erickguan/agentic-finance-analysis/models"
)

func TestFormatOverviewIsDeterministic(t *testing.T) {
	company := &models.CompanyProfile{
		Name:        "Apple Inc",
		Description: "Designs consumer electronics.",
		Sector:      "Technology",
		Industry:    "Consumer Electronics",
		MarketCap:   3000000000000,
		Employees:   164000,
	}

	first := FormatOverview("AAPL", company)
	second := FormatOverview("AAPL", company)
	if first != second {
		t.Fatal("identical input produced different output")
	}
	if !strings.Contains(first, "Company: Apple Inc (AAPL)") {
		t.Fatalf("missing header: %q", first)
	}
	if !strings.Contains(first, "Market Cap: $3,000,000,000,000") {
		t.Fatalf("market cap not grouped: %q", first)
	}
}

func TestFormatOverviewOmitsAbsentFields(t *testing.T) {
	out := FormatOverview("AAPL", &models.CompanyProfile{Name: "Apple Inc"})
	for _, field := range []string{"Description:", "Sector:", "Industry:", "Market Cap:", "Employees:"} {
		if strings.Contains(out, field) {
			t.Fatalf("absent field %q rendered: %q", field, out)
		}
	}
}

func TestFormatHistoricalThirtyDayChange(t *testing.T) {
	points := make([]models.PricePoint, 40)
	for i := range points {
		points[i].Close = 100
	}
	points[0].Close = 110 // most recent first
	points[29].Close = 100

	out := FormatHistorical("AAPL", &models.HistoricalData{Points: points})
	if !strings.Contains(out, "Current $110.00") {
		t.Fatalf("current close missing: %q", out)
	}
	if !strings.Contains(out, "+10.00%") {
		t.Fatalf("change percent wrong: %q", out)
	}
}

func TestFormatHistoricalTooFewPoints(t *testing.T) {
	out := FormatHistorical("AAPL", &models.HistoricalData{
		Points: []models.PricePoint{{Close: 100}},
	})
	if out != "Historical data for AAPL" {
		t.Fatalf("expected bare fallback, got %q", out)
	}
}

func TestBuildDocumentsOnePerCategory(t *testing.T) {
	now := time.Now()
	record := &models.StockRecord{
		Symbol:  "aapl",
		Company: &models.CompanyProfile{Name: "Apple Inc"},
		Financial: &models.FinancialData{
			Metrics: &models.KeyMetrics{PERatio: 28.5},
		},
		Historical: &models.HistoricalData{
			Points: []models.PricePoint{{Close: 110}, {Close: 100}},
		},
		News: []models.NewsArticle{
			{Title: "Apple launch event", Published: now},
		},
		Analyst: &models.AnalystData{
			Recommendations: []models.Recommendation{{ToGrade: "Buy"}},
		},
	}

	docs := BuildDocuments(record, now)
	if len(docs) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(docs))
	}

	types := make(map[models.DocType]int)
	for _, doc := range docs {
		types[doc.Type]++
		if doc.Symbol != "AAPL" {
			t.Fatalf("symbol not uppercased: %q", doc.Symbol)
		}
		if !doc.Timestamp.Equal(now) {
			t.Fatal("ingestion timestamp not propagated")
		}
	}
	for _, dt := range []models.DocType{
		models.DocTypeOverview, models.DocTypeFinancial, models.DocTypeHistorical,
		models.DocTypeNews, models.DocTypeAnalyst,
	} {
		if types[dt] != 1 {
			t.Fatalf("category %s produced %d documents", dt, types[dt])
		}
	}
}

func TestBuildDocumentsCapsNews(t *testing.T) {
	record := &models.StockRecord{Symbol: "AAPL"}
	for i := 0; i < 25; i++ {
		record.News = append(record.News, models.NewsArticle{Title: "headline"})
	}

	docs := BuildDocuments(record, time.Now())
	if len(docs) != maxNewsPerIngest {
		t.Fatalf("news not capped: %d documents", len(docs))
	}
}

func TestBuildDocumentsNilRecord(t *testing.T) {
	if docs := BuildDocuments(nil, time.Now()); docs != nil {
		t.Fatalf("expected nil for nil record, got %d docs", len(docs))
	}
}

func TestFormatStockSummaryTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 400)
	record := &models.StockRecord{
		Symbol:  "AAPL",
		Company: &models.CompanyProfile{Name: "Apple Inc", Description: long},
	}

	out := FormatStockSummary(record)
	if !strings.Contains(out, strings.Repeat("a", 300)+"...") {
		t.Fatal("description not truncated at 300 characters")
	}
	if strings.Contains(out, strings.Repeat("a", 301)) {
		t.Fatal("description longer than 300 characters survived")
	}
}
