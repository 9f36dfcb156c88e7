package services

import (
	"regexp"
	"strings"
)

// Symbol extraction from free-form query text. The patterns are heuristic:
// a ticker that coincides with a common English word (e.g. "ALL") will be
// filtered by the stop list, and lowercase mentions are not detected. That
// trade-off is intentional; resolution falls through to a company name
// search when no pattern matches.

var (
	dollarSymbolPattern  = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
	labeledSymbolPattern = regexp.MustCompile(`(?i)\b(?:ticker|symbol)\s*:?\s*\$?([A-Za-z]{1,5})\b`)
	upperTokenPattern    = regexp.MustCompile(`\b([A-Z]{1,5})\b`)
	nonAlphabeticPattern = regexp.MustCompile(`[^a-zA-Z\s]`)
)

// symbolStopWords are common English words that are also valid 1-5 letter
// all-caps tokens. A bare uppercase token matching this list is never
// treated as a ticker.
var symbolStopWords = map[string]struct{}{
	"A": {}, "I": {}, "AN": {}, "AM": {}, "AS": {}, "AT": {}, "BE": {}, "BY": {},
	"DO": {}, "GO": {}, "IF": {}, "IN": {}, "IS": {}, "IT": {}, "ME": {}, "MY": {},
	"NO": {}, "OF": {}, "ON": {}, "OR": {}, "SO": {}, "TO": {}, "UP": {}, "US": {},
	"WE": {}, "ALL": {}, "AND": {}, "ARE": {}, "BUT": {}, "CAN": {}, "DID": {},
	"FOR": {}, "GET": {}, "HAS": {}, "HOW": {}, "ITS": {}, "NEW": {}, "NOT": {},
	"NOW": {}, "OUT": {}, "THE": {}, "WAS": {}, "WHO": {}, "WHY": {}, "YOU": {},
	"BEST": {}, "DOES": {}, "GOOD": {}, "HAVE": {}, "JUST": {}, "LIKE": {},
	"MAKE": {}, "MORE": {}, "MOST": {}, "OVER": {}, "THAN": {}, "THAT": {},
	"THIS": {}, "WHAT": {}, "WHEN": {}, "WILL": {}, "WITH": {}, "ABOUT": {},
	"COULD": {}, "SHARE": {}, "STOCK": {}, "TODAY": {}, "WHICH": {}, "WORTH": {},
}

// keywordStopWords are filtered out of the query before a company name
// search; they carry no identifying signal.
var keywordStopWords = map[string]struct{}{
	"stock": {}, "share": {}, "shares": {}, "company": {}, "corp": {},
	"corporation": {}, "inc": {}, "ltd": {}, "price": {}, "performance": {},
	"analysis": {}, "recent": {}, "latest": {}, "current": {}, "tell": {},
	"me": {}, "about": {}, "what": {}, "how": {}, "is": {}, "the": {},
	"a": {}, "an": {}, "and": {}, "or": {}, "market": {}, "today": {},
	"worth": {}, "doing": {}, "should": {}, "invest": {}, "buy": {}, "sell": {},
}

// ExtractSymbol pulls a ticker out of free text. Precedence: $-prefixed,
// then "ticker:"/"symbol:" labeled, then bare all-caps tokens not on the
// stop list. Returns "" when nothing matches.
func ExtractSymbol(query string) string {
	if m := dollarSymbolPattern.FindStringSubmatch(query); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := labeledSymbolPattern.FindStringSubmatch(query); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, m := range upperTokenPattern.FindAllStringSubmatch(query, -1) {
		token := m[1]
		if _, stop := symbolStopWords[token]; stop {
			continue
		}
		return token
	}
	return ""
}

// ExtractKeywords extracts up to three meaningful tokens for a company name
// search. Returns "" when the query is all stop words.
func ExtractKeywords(query string) string {
	cleaned := nonAlphabeticPattern.ReplaceAllString(strings.ToLower(query), " ")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 3 {
			break
		}
	}
	return strings.Join(keywords, " ")
}

// recencyKeywords trigger a fresh web news fetch during retrieval.
var recencyKeywords = []string{
	"recent", "latest", "news", "current", "today", "yesterday",
	"this week", "this month", "breaking", "announcement",
	"earnings", "report", "update", "development",
}

// NeedsRecentNews reports whether the query asks about recent events.
func NeedsRecentNews(query string) bool {
	lower := strings.ToLower(query)
	for _, keyword := range recencyKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
