package models

import "time"

// Quote is a point-in-time market quote for a symbol.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	Volume           int64   `json:"volume"`
	PreviousClose    float64 `json:"previous_close,omitempty"`
	Open             float64 `json:"open,omitempty"`
	High             float64 `json:"high,omitempty"`
	Low              float64 `json:"low,omitempty"`
	MarketCap        int64   `json:"market_cap,omitempty"`
	LatestTradingDay string  `json:"latest_trading_day,omitempty"`
	Source           string  `json:"source"`
}

// CompanyProfile describes the company behind a symbol.
type CompanyProfile struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	MarketCap   int64  `json:"market_cap,omitempty"`
	Employees   int64  `json:"employees,omitempty"`
	Source      string `json:"source"`
}

// PricePoint is one day of OHLCV data.
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// HistoricalData holds daily price history, most recent first.
type HistoricalData struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
	Source string       `json:"source"`
}

// KeyMetrics are the latest fundamental metrics for a company.
type KeyMetrics struct {
	PERatio      float64 `json:"pe_ratio,omitempty"`
	MarketCap    int64   `json:"market_cap,omitempty"`
	DebtToEquity float64 `json:"debt_to_equity,omitempty"`
	ROE          float64 `json:"roe,omitempty"`
	Source       string  `json:"source,omitempty"`
}

// FinancialRatios are derived valuation and liquidity ratios.
type FinancialRatios struct {
	CurrentRatio float64 `json:"current_ratio,omitempty"`
	QuickRatio   float64 `json:"quick_ratio,omitempty"`
	GrossMargin  float64 `json:"gross_margin,omitempty"`
	NetMargin    float64 `json:"net_margin,omitempty"`
	PriceToSales float64 `json:"price_to_sales,omitempty"`
	PriceToBook  float64 `json:"price_to_book,omitempty"`
	Source       string  `json:"source,omitempty"`
}

// EarningsReport is one reported quarter.
type EarningsReport struct {
	FiscalDate  string  `json:"fiscal_date"`
	ReportedEPS float64 `json:"reported_eps,omitempty"`
	EstimateEPS float64 `json:"estimate_eps,omitempty"`
	Surprise    float64 `json:"surprise,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// FinancialData merges partial contributions from multiple collectors: the
// categories are complementary (metrics from one source, statements from
// another) rather than alternatives.
type FinancialData struct {
	Metrics    *KeyMetrics      `json:"key_metrics,omitempty"`
	Ratios     *FinancialRatios `json:"financial_ratios,omitempty"`
	Statements map[string]any   `json:"financial_statements,omitempty"`
	Earnings   []EarningsReport `json:"earnings,omitempty"`
	Sources    []string         `json:"sources,omitempty"`
}

// Recommendation is a single analyst rating action.
type Recommendation struct {
	Firm      string    `json:"firm,omitempty"`
	ToGrade   string    `json:"to_grade"`
	FromGrade string    `json:"from_grade,omitempty"`
	Action    string    `json:"action,omitempty"`
	Date      time.Time `json:"date,omitempty"`
}

// AnalystEstimate is a consensus forward estimate.
type AnalystEstimate struct {
	Period      string  `json:"period"`
	EPSAvg      float64 `json:"eps_avg,omitempty"`
	RevenueAvg  float64 `json:"revenue_avg,omitempty"`
	NumAnalysts int     `json:"num_analysts,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// AnalystData merges recommendations and estimates across collectors.
type AnalystData struct {
	Recommendations []Recommendation  `json:"recommendations,omitempty"`
	Estimates       []AnalystEstimate `json:"estimates,omitempty"`
	EarningsDates   []string          `json:"earnings_calendar,omitempty"`
	Sources         []string          `json:"sources,omitempty"`
}

// StockRecord is the fused per-symbol snapshot. Each optional field is
// independently present or absent depending on which collector succeeded.
// Records live only in a time-boxed in-memory cache.
type StockRecord struct {
	Symbol      string          `json:"symbol"`
	Timestamp   time.Time       `json:"timestamp"`
	Quote       *Quote          `json:"quote,omitempty"`
	Company     *CompanyProfile `json:"company,omitempty"`
	Historical  *HistoricalData `json:"historical,omitempty"`
	Financial   *FinancialData  `json:"financial,omitempty"`
	News        []NewsArticle   `json:"news,omitempty"`
	Analyst     *AnalystData    `json:"analyst,omitempty"`
	SourcesUsed []string        `json:"sources_used"`
}

// CompanyMatch is one hit from a company name/symbol search.
type CompanyMatch struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}
