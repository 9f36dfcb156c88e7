package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/erickguan/agentic-finance-analysis/internal/config"
	"github.com/erickguan/agentic-finance-analysis/internal/logger"
	"github.com/erickguan/agentic-finance-analysis/models"
	"github.com/erickguan/agentic-finance-analysis/services"
	"github.com/erickguan/agentic-finance-analysis/utils"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Scraper scrapes financial news sites for per-symbol headlines. Everything
// here is best-effort: a site that is down, slow, or has changed its markup
// contributes zero articles and nothing else.
type Scraper struct {
	sites   []Site
	limiter *rate.Limiter
	timeout time.Duration
}

func New(cfg *config.Config) *Scraper {
	rpm := cfg.ScrapeRPM
	if rpm <= 0 {
		rpm = 30
	}
	timeout := cfg.ScrapeTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Scraper{
		sites:   defaultSites(),
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(rpm/6, 1)),
		timeout: timeout,
	}
}

// FetchNews scrapes all configured sites concurrently and returns the
// deduplicated articles most-recent-first. Site failures are isolated; the
// call succeeds with whatever subset responded.
func (s *Scraper) FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	symbol = strings.ToUpper(symbol)
	if limit <= 0 {
		limit = 5
	}

	results := make([][]models.NewsArticle, len(s.sites))
	var wg sync.WaitGroup
	for i, site := range s.sites {
		wg.Add(1)
		go func(i int, site Site) {
			defer wg.Done()
			articles, err := s.scrapeSite(ctx, site, symbol, limit)
			if err != nil {
				logger.Warn("Site scrape failed", "site", site.Name, "symbol", symbol, "error", err)
				return
			}
			results[i] = articles
		}(i, site)
	}
	wg.Wait()

	var all []models.NewsArticle
	for _, articles := range results {
		all = append(all, articles...)
	}

	unique := services.DedupeNews(all)
	services.SortNewsByRecency(unique)
	logger.Info("Scraped news", "symbol", symbol, "articles", len(unique))
	return unique, nil
}

func (s *Scraper) scrapeSite(ctx context.Context, site Site, symbol string, limit int) ([]models.NewsArticle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(browserUA))
	c.SetRequestTimeout(s.timeout)

	var (
		mu       sync.Mutex
		articles []models.NewsArticle
	)

	c.OnHTML(site.ArticleSelector, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(articles) >= limit {
			return
		}

		article, ok := parseArticle(e, site, symbol)
		if ok {
			articles = append(articles, article)
		}
	})

	if err := c.Visit(site.URL(symbol)); err != nil {
		return nil, err
	}
	c.Wait()

	return articles, nil
}

func parseArticle(e *colly.HTMLElement, site Site, symbol string) (models.NewsArticle, bool) {
	doc := e.DOM

	titleNode := doc.Find("h3, h2, a").First()
	title := utils.CleanText(titleNode.Text())
	if title == "" {
		return models.NewsArticle{}, false
	}

	link := firstHref(e, titleNode, titleNode.Find("a").First(), doc.Find("a").First())

	published := time.Time{}
	dateNode := doc.Find("time").First()
	if dateNode.Length() > 0 {
		raw, ok := dateNode.Attr("datetime")
		if !ok {
			raw = dateNode.Text()
		}
		published = utils.ParseDate(raw)
	}

	summary := utils.CleanText(doc.Find("p").First().Text())

	return models.NewsArticle{
		Title:     title,
		Link:      link,
		Published: published,
		Publisher: site.Name,
		Summary:   summary,
		Symbol:    symbol,
		Source:    site.Source,
	}, true
}

// firstHref returns the first candidate node carrying an href, resolved
// against the request URL.
func firstHref(e *colly.HTMLElement, nodes ...*goquery.Selection) string {
	for _, node := range nodes {
		if href, ok := node.Attr("href"); ok && href != "" {
			return e.Request.AbsoluteURL(href)
		}
	}
	return ""
}
