package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/erickguan/agentic-finance-analysis/internal/logger"
	"github.com/erickguan/agentic-finance-analysis/models"
)

// ErrUnsupported is returned by a collector for a capability it does not
// implement. Fusion skips the collector for that category without treating
// it as a failure.
var ErrUnsupported = errors.New("capability not supported")

// Collector adapts one external finance data provider. Every method is
// independently optional: returning ErrUnsupported marks the capability
// absent. Available reports whether the collector is usable at all (e.g.
// credentials configured) so fusion can skip it without a network call.
type Collector interface {
	Name() string
	Available() bool
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	Profile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	History(ctx context.Context, symbol string, days int) (*models.HistoricalData, error)
	Financials(ctx context.Context, symbol string) (*models.FinancialData, error)
	News(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
	Analyst(ctx context.Context, symbol string) (*models.AnalystData, error)
	Search(ctx context.Context, query string) ([]models.CompanyMatch, error)
}

// FusionOrder is the single central preference configuration: per category,
// the collector names to try in order. Quote, profile and history are
// first-non-empty-wins; financial and analyst merge partial contributions
// across the whole list; news aggregates across the whole list.
type FusionOrder struct {
	Quote     []string
	Profile   []string
	History   []string
	Financial []string
	News      []string
	Analyst   []string
	Search    []string
}

// DefaultFusionOrder mirrors the preference ordering the collectors were
// tuned for: Yahoo Finance is the freshest quote/history source, Alpha
// Vantage carries the richest company overviews.
func DefaultFusionOrder() FusionOrder {
	return FusionOrder{
		Quote:     []string{"yahoo_finance", "alpha_vantage", "financial_modeling_prep"},
		Profile:   []string{"alpha_vantage", "yahoo_finance", "financial_modeling_prep"},
		History:   []string{"yahoo_finance", "alpha_vantage", "financial_modeling_prep"},
		Financial: []string{"financial_modeling_prep", "yahoo_finance", "alpha_vantage"},
		News:      []string{"yahoo_finance", "financial_modeling_prep", "alpha_vantage"},
		Analyst:   []string{"yahoo_finance", "financial_modeling_prep"},
		Search:    []string{"alpha_vantage", "yahoo_finance", "financial_modeling_prep"},
	}
}

// Aggregator fuses per-symbol data from multiple collectors. Category fetches
// run concurrently and each failure resolves to an absent field, never to a
// failure of the whole call.
type Aggregator struct {
	collectors map[string]Collector
	order      FusionOrder
	timeout    time.Duration
	newsLimit  int
}

func NewAggregator(collectors []Collector, order FusionOrder, timeout time.Duration) *Aggregator {
	byName := make(map[string]Collector, len(collectors))
	for _, c := range collectors {
		byName[c.Name()] = c
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Aggregator{
		collectors: byName,
		order:      order,
		timeout:    timeout,
		newsLimit:  20,
	}
}

// ordered resolves preference names to usable collectors, skipping unknown
// and unavailable ones.
func (a *Aggregator) ordered(names []string) []Collector {
	out := make([]Collector, 0, len(names))
	for _, name := range names {
		c, ok := a.collectors[name]
		if !ok || !c.Available() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FetchComprehensive assembles the fused snapshot for a symbol. The six
// category fetches run concurrently, each isolated with its own timeout;
// SourcesUsed records which collector supplied each category.
func (a *Aggregator) FetchComprehensive(ctx context.Context, symbol string) *models.StockRecord {
	symbol = strings.ToUpper(symbol)
	record := &models.StockRecord{
		Symbol:      symbol,
		Timestamp:   time.Now(),
		SourcesUsed: []string{},
	}

	var mu sync.Mutex
	addSources := func(sources ...string) {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range sources {
			if s == "" {
				continue
			}
			found := false
			for _, existing := range record.SourcesUsed {
				if existing == s {
					found = true
					break
				}
			}
			if !found {
				record.SourcesUsed = append(record.SourcesUsed, s)
			}
		}
	}

	var wg sync.WaitGroup
	run := func(fetch func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			fetch(cctx)
		}()
	}

	run(func(cctx context.Context) {
		if quote := a.fetchQuote(cctx, symbol); quote != nil {
			mu.Lock()
			record.Quote = quote
			mu.Unlock()
			addSources(quote.Source)
		}
	})
	run(func(cctx context.Context) {
		if profile := a.fetchProfile(cctx, symbol); profile != nil {
			mu.Lock()
			record.Company = profile
			mu.Unlock()
			addSources(profile.Source)
		}
	})
	run(func(cctx context.Context) {
		if hist := a.fetchHistory(cctx, symbol); hist != nil {
			mu.Lock()
			record.Historical = hist
			mu.Unlock()
			addSources(hist.Source)
		}
	})
	run(func(cctx context.Context) {
		if fin := a.fetchFinancials(cctx, symbol); fin != nil {
			mu.Lock()
			record.Financial = fin
			mu.Unlock()
			addSources(fin.Sources...)
		}
	})
	run(func(cctx context.Context) {
		news := a.fetchNews(cctx, symbol)
		if len(news) > 0 {
			mu.Lock()
			record.News = news
			mu.Unlock()
			for _, article := range news {
				addSources(article.Source)
			}
		}
	})
	run(func(cctx context.Context) {
		if analyst := a.fetchAnalyst(cctx, symbol); analyst != nil {
			mu.Lock()
			record.Analyst = analyst
			mu.Unlock()
			addSources(analyst.Sources...)
		}
	})

	wg.Wait()
	return record
}

func (a *Aggregator) fetchQuote(ctx context.Context, symbol string) *models.Quote {
	for _, c := range a.ordered(a.order.Quote) {
		quote, err := c.Quote(ctx, symbol)
		if err != nil {
			logCollectorMiss("quote", c.Name(), symbol, err)
			continue
		}
		if quote != nil {
			quote.Source = c.Name()
			return quote
		}
	}
	return nil
}

func (a *Aggregator) fetchProfile(ctx context.Context, symbol string) *models.CompanyProfile {
	for _, c := range a.ordered(a.order.Profile) {
		profile, err := c.Profile(ctx, symbol)
		if err != nil {
			logCollectorMiss("profile", c.Name(), symbol, err)
			continue
		}
		if profile != nil {
			profile.Source = c.Name()
			return profile
		}
	}
	return nil
}

func (a *Aggregator) fetchHistory(ctx context.Context, symbol string) *models.HistoricalData {
	for _, c := range a.ordered(a.order.History) {
		hist, err := c.History(ctx, symbol, 252)
		if err != nil {
			logCollectorMiss("history", c.Name(), symbol, err)
			continue
		}
		if hist != nil && len(hist.Points) > 0 {
			hist.Source = c.Name()
			return hist
		}
	}
	return nil
}

// fetchFinancials merges partial contributions: the first collector to supply
// each sub-field (metrics, ratios, statements, earnings) wins that sub-field.
// Financial data is complementary across providers, not alternative.
func (a *Aggregator) fetchFinancials(ctx context.Context, symbol string) *models.FinancialData {
	merged := &models.FinancialData{}
	for _, c := range a.ordered(a.order.Financial) {
		fin, err := c.Financials(ctx, symbol)
		if err != nil {
			logCollectorMiss("financials", c.Name(), symbol, err)
			continue
		}
		if fin == nil {
			continue
		}
		contributed := false
		if merged.Metrics == nil && fin.Metrics != nil {
			merged.Metrics = fin.Metrics
			contributed = true
		}
		if merged.Ratios == nil && fin.Ratios != nil {
			merged.Ratios = fin.Ratios
			contributed = true
		}
		if merged.Statements == nil && fin.Statements != nil {
			merged.Statements = fin.Statements
			contributed = true
		}
		if len(merged.Earnings) == 0 && len(fin.Earnings) > 0 {
			merged.Earnings = fin.Earnings
			contributed = true
		}
		if contributed {
			merged.Sources = append(merged.Sources, c.Name())
		}
	}

	if len(merged.Sources) == 0 {
		return nil
	}
	return merged
}

// fetchNews aggregates across all collectors before deduplication; news is
// additive rather than first-wins.
func (a *Aggregator) fetchNews(ctx context.Context, symbol string) []models.NewsArticle {
	var all []models.NewsArticle
	for _, c := range a.ordered(a.order.News) {
		articles, err := c.News(ctx, symbol, a.newsLimit)
		if err != nil {
			logCollectorMiss("news", c.Name(), symbol, err)
			continue
		}
		for i := range articles {
			if articles[i].Source == "" {
				articles[i].Source = c.Name()
			}
		}
		all = append(all, articles...)
	}
	if len(all) == 0 {
		return nil
	}

	unique := DedupeNews(all)
	SortNewsByRecency(unique)
	return unique
}

// fetchAnalyst merges recommendations and estimates the same way financials
// merge: first collector to supply each sub-field wins it.
func (a *Aggregator) fetchAnalyst(ctx context.Context, symbol string) *models.AnalystData {
	merged := &models.AnalystData{}
	for _, c := range a.ordered(a.order.Analyst) {
		analyst, err := c.Analyst(ctx, symbol)
		if err != nil {
			logCollectorMiss("analyst", c.Name(), symbol, err)
			continue
		}
		if analyst == nil {
			continue
		}
		contributed := false
		if len(merged.Recommendations) == 0 && len(analyst.Recommendations) > 0 {
			merged.Recommendations = analyst.Recommendations
			contributed = true
		}
		if len(merged.Estimates) == 0 && len(analyst.Estimates) > 0 {
			merged.Estimates = analyst.Estimates
			contributed = true
		}
		if len(merged.EarningsDates) == 0 && len(analyst.EarningsDates) > 0 {
			merged.EarningsDates = analyst.EarningsDates
			contributed = true
		}
		if contributed {
			merged.Sources = append(merged.Sources, c.Name())
		}
	}

	if len(merged.Sources) == 0 {
		return nil
	}
	return merged
}

// SearchCompanies fans a name/symbol search across all collectors, dedupes
// by symbol (first collector in preference order wins) and sorts by score.
func (a *Aggregator) SearchCompanies(ctx context.Context, query string) []models.CompanyMatch {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	seen := make(map[string]struct{})
	var results []models.CompanyMatch
	for _, c := range a.ordered(a.order.Search) {
		matches, err := c.Search(cctx, query)
		if err != nil {
			logCollectorMiss("search", c.Name(), query, err)
			continue
		}
		for _, match := range matches {
			symbol := strings.ToUpper(match.Symbol)
			if symbol == "" {
				continue
			}
			if _, dup := seen[symbol]; dup {
				continue
			}
			seen[symbol] = struct{}{}
			match.Symbol = symbol
			if match.Source == "" {
				match.Source = c.Name()
			}
			results = append(results, match)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

func logCollectorMiss(category, collector, subject string, err error) {
	if errors.Is(err, ErrUnsupported) {
		return
	}
	logger.Warn("Collector miss", "category", category, "collector", collector, "subject", subject, "error", err)
}
