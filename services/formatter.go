package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/erickguan/agentic-finance-analysis/models"
	"github.com/erickguan/agentic-finance-analysis/utils"
)

// Formatting of structured stock records into embeddable text. Every function
// here is pure: identical input yields byte-identical output, and absent
// fields are omitted rather than rendered as placeholders.

const (
	maxNewsPerIngest     = 10
	maxRecommendations   = 5
	historicalWindowDays = 30
)

// FormatOverview renders a company profile as a pipe-delimited string.
func FormatOverview(symbol string, company *models.CompanyProfile) string {
	name := company.Name
	if name == "" {
		name = symbol
	}
	parts := []string{fmt.Sprintf("Company: %s (%s)", name, symbol)}

	if company.Description != "" {
		parts = append(parts, "Description: "+company.Description)
	}
	if company.Sector != "" {
		parts = append(parts, "Sector: "+company.Sector)
	}
	if company.Industry != "" {
		parts = append(parts, "Industry: "+company.Industry)
	}
	if company.MarketCap > 0 {
		parts = append(parts, "Market Cap: $"+utils.GroupInt(company.MarketCap))
	}
	if company.Employees > 0 {
		parts = append(parts, "Employees: "+utils.GroupInt(company.Employees))
	}

	return strings.Join(parts, " | ")
}

// FormatFinancial renders key metrics and ratios.
func FormatFinancial(symbol string, financial *models.FinancialData) string {
	parts := []string{"Financial Data for " + symbol}

	if m := financial.Metrics; m != nil {
		if m.PERatio != 0 {
			parts = append(parts, fmt.Sprintf("P/E Ratio: %.2f", m.PERatio))
		}
		if m.MarketCap > 0 {
			parts = append(parts, "Market Cap: "+utils.FormatCurrency(float64(m.MarketCap)))
		}
		if m.DebtToEquity != 0 {
			parts = append(parts, fmt.Sprintf("Debt-to-Equity: %.2f", m.DebtToEquity))
		}
		if m.ROE != 0 {
			parts = append(parts, fmt.Sprintf("ROE: %.2f%%", m.ROE*100))
		}
	}

	if r := financial.Ratios; r != nil {
		if r.CurrentRatio != 0 {
			parts = append(parts, fmt.Sprintf("Current Ratio: %.2f", r.CurrentRatio))
		}
		if r.GrossMargin != 0 {
			parts = append(parts, fmt.Sprintf("Gross Margin: %.2f%%", r.GrossMargin*100))
		}
		if r.PriceToBook != 0 {
			parts = append(parts, fmt.Sprintf("Price-to-Book: %.2f", r.PriceToBook))
		}
	}

	if len(financial.Earnings) > 0 {
		latest := financial.Earnings[0]
		if latest.ReportedEPS != 0 {
			parts = append(parts, fmt.Sprintf("Latest EPS: %.2f (%s)", latest.ReportedEPS, latest.FiscalDate))
		}
	}

	return strings.Join(parts, " | ")
}

// FormatHistorical summarizes recent price action: the current close and the
// percentage change against the close ~30 data points earlier. Data points,
// not calendar days; fewer than 2 price points skips the stat entirely.
func FormatHistorical(symbol string, historical *models.HistoricalData) string {
	window := historical.Points
	if len(window) > historicalWindowDays {
		window = window[:historicalWindowDays]
	}

	prices := make([]float64, 0, len(window))
	for _, p := range window {
		if p.Close != 0 {
			prices = append(prices, p.Close)
		}
	}

	if len(prices) < 2 {
		return "Historical data for " + symbol
	}

	current := prices[0]
	past := prices[len(prices)-1]
	if past == 0 {
		return "Historical data for " + symbol
	}
	changePercent := (current - past) / past * 100

	return fmt.Sprintf("Historical Performance for %s: Current $%.2f, 30-day change: %s",
		symbol, current, utils.FormatPercent(changePercent))
}

// FormatNewsArticle renders one article.
func FormatNewsArticle(symbol string, article models.NewsArticle) string {
	parts := []string{"News for " + symbol}

	if article.Title != "" {
		parts = append(parts, "Title: "+article.Title)
	}
	if article.Summary != "" {
		parts = append(parts, "Summary: "+article.Summary)
	}
	if !article.Published.IsZero() {
		parts = append(parts, "Published: "+article.Published.Format("2006-01-02 15:04:05"))
	}
	if article.Publisher != "" {
		parts = append(parts, "Source: "+article.Publisher)
	}

	return strings.Join(parts, " | ")
}

// FormatAnalyst summarizes the 5 most recent analyst recommendations and any
// forward estimates.
func FormatAnalyst(symbol string, analyst *models.AnalystData) string {
	parts := []string{"Analyst Data for " + symbol}

	recs := analyst.Recommendations
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	grades := make([]string, 0, len(recs))
	for _, rec := range recs {
		if rec.ToGrade != "" {
			grades = append(grades, rec.ToGrade)
		}
	}
	if len(grades) > 0 {
		parts = append(parts, "Recent Recommendations: "+strings.Join(grades, ", "))
	}

	if len(analyst.Estimates) > 0 {
		est := analyst.Estimates[0]
		if est.EPSAvg != 0 {
			parts = append(parts, fmt.Sprintf("Consensus EPS (%s): %.2f", est.Period, est.EPSAvg))
		}
	}

	return strings.Join(parts, " | ")
}

// BuildDocuments converts a fused stock record into embeddable documents,
// one per present category plus one per news article (capped). The ingestion
// timestamp is passed explicitly so the conversion stays deterministic.
func BuildDocuments(record *models.StockRecord, now time.Time) []models.Document {
	if record == nil {
		return nil
	}
	symbol := strings.ToUpper(record.Symbol)

	var docs []models.Document

	if record.Company != nil {
		docs = append(docs, models.Document{
			Text:      FormatOverview(symbol, record.Company),
			Type:      models.DocTypeOverview,
			Symbol:    symbol,
			Timestamp: now,
		})
	}

	if record.Financial != nil {
		docs = append(docs, models.Document{
			Text:      FormatFinancial(symbol, record.Financial),
			Type:      models.DocTypeFinancial,
			Symbol:    symbol,
			Timestamp: now,
		})
	}

	if record.Historical != nil {
		docs = append(docs, models.Document{
			Text:      FormatHistorical(symbol, record.Historical),
			Type:      models.DocTypeHistorical,
			Symbol:    symbol,
			Timestamp: now,
		})
	}

	news := record.News
	if len(news) > maxNewsPerIngest {
		news = news[:maxNewsPerIngest]
	}
	for _, article := range news {
		extra := map[string]string{"source": article.Source}
		if !article.Published.IsZero() {
			extra["article_date"] = article.Published.Format(time.RFC3339)
		}
		docs = append(docs, models.Document{
			Text:      FormatNewsArticle(symbol, article),
			Type:      models.DocTypeNews,
			Symbol:    symbol,
			Timestamp: now,
			Extra:     extra,
		})
	}

	if record.Analyst != nil {
		docs = append(docs, models.Document{
			Text:      FormatAnalyst(symbol, record.Analyst),
			Type:      models.DocTypeAnalyst,
			Symbol:    symbol,
			Timestamp: now,
		})
	}

	return docs
}

// FormatStockSummary renders a fused record as a human-readable company
// summary for direct display.
func FormatStockSummary(record *models.StockRecord) string {
	if record == nil {
		return "No data available."
	}

	var parts []string
	symbol := record.Symbol

	if company := record.Company; company != nil {
		name := company.Name
		if name == "" {
			name = symbol
		}
		parts = append(parts, fmt.Sprintf("**%s (%s)**", name, symbol))
		if company.Sector != "" {
			parts = append(parts, "Sector: "+company.Sector)
		}
		if company.Industry != "" {
			parts = append(parts, "Industry: "+company.Industry)
		}
		if description := company.Description; description != "" {
			if len(description) > 300 {
				description = description[:300] + "..."
			}
			parts = append(parts, "Description: "+description)
		}
	}

	if quote := record.Quote; quote != nil {
		parts = append(parts, fmt.Sprintf("\n**Current Price:** $%.2f", quote.Price))
		parts = append(parts, fmt.Sprintf("**Change:** %+.2f (%s)", quote.Change, utils.FormatPercent(quote.ChangePercent)))
		if quote.Volume > 0 {
			parts = append(parts, "**Volume:** "+utils.GroupInt(quote.Volume))
		}
	}

	if financial := record.Financial; financial != nil && financial.Metrics != nil {
		m := financial.Metrics
		parts = append(parts, "\n**Key Metrics:**")
		if m.PERatio != 0 {
			parts = append(parts, fmt.Sprintf("P/E Ratio: %.2f", m.PERatio))
		}
		if m.MarketCap > 0 {
			parts = append(parts, "Market Cap: "+utils.FormatCurrency(float64(m.MarketCap)))
		}
		if m.DebtToEquity != 0 {
			parts = append(parts, fmt.Sprintf("Debt-to-Equity: %.2f", m.DebtToEquity))
		}
	}

	if len(record.News) > 0 {
		parts = append(parts, fmt.Sprintf("\n**Recent News:** %d articles available", len(record.News)))
	}

	if analyst := record.Analyst; analyst != nil && len(analyst.Recommendations) > 0 {
		parts = append(parts, fmt.Sprintf("**Analyst Recommendations:** %d recent ratings", len(analyst.Recommendations)))
	}

	if len(parts) == 0 {
		return "No data available."
	}
	return strings.Join(parts, "\n")
}
