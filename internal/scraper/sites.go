package scraper

import (
	"fmt"
	"strings"
)

// Site describes one scrapable news source: where a symbol's page lives and
// which elements hold the articles. Selectors track each site's current
// markup and break silently when the site changes; that is the accepted cost
// of best-effort scraping.
type Site struct {
	Name            string
	Source          string
	ArticleSelector string
	URL             func(symbol string) string
}

func defaultSites() []Site {
	return []Site{
		{
			Name:            "MarketWatch",
			Source:          "marketwatch_scraper",
			ArticleSelector: "div.article__content, div.element--article",
			URL: func(symbol string) string {
				return fmt.Sprintf("https://www.marketwatch.com/investing/stock/%s", strings.ToLower(symbol))
			},
		},
		{
			Name:            "Seeking Alpha",
			Source:          "seeking_alpha_scraper",
			ArticleSelector: "article",
			URL: func(symbol string) string {
				return fmt.Sprintf("https://seekingalpha.com/symbol/%s/news", strings.ToUpper(symbol))
			},
		},
		{
			Name:            "Reuters",
			Source:          "reuters_scraper",
			ArticleSelector: "div.search-result, li.search-results__item",
			URL: func(symbol string) string {
				return fmt.Sprintf("https://www.reuters.com/search/news?blob=%s", symbol)
			},
		},
	}
}
