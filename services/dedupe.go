package services

import (
	"sort"
	"strings"

	"github.com/erickguan/agentic-finance-analysis/models"
)

// DedupeNews removes near-duplicate articles in an order-preserving pass.
// Two titles are duplicates when their word-set overlap
// |intersection| / max(|A|,|B|) exceeds 0.7. Articles with an empty
// normalized title are skipped entirely.
//
// The comparison is O(n^2) in article count per call. Per-symbol article
// counts are tens, not thousands, so this is a known and accepted scaling
// limit rather than a problem to engineer around.
func DedupeNews(articles []models.NewsArticle) []models.NewsArticle {
	unique := make([]models.NewsArticle, 0, len(articles))
	seen := make([]map[string]struct{}, 0, len(articles))

	for _, article := range articles {
		title := strings.ToLower(strings.TrimSpace(article.Title))
		if title == "" {
			continue
		}

		words := wordSet(title)
		duplicate := false
		for _, prior := range seen {
			if titleOverlap(words, prior) > 0.7 {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		unique = append(unique, article)
		seen = append(seen, words)
	}

	return unique
}

// SortNewsByRecency orders articles most-recent-first. Articles whose
// publication date could not be parsed (zero time) sort last.
func SortNewsByRecency(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i].Published, articles[j].Published
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
}

func wordSet(title string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(title) {
		words[w] = struct{}{}
	}
	return words
}

func titleOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}

	return float64(intersection) / float64(max(len(a), len(b)))
}
