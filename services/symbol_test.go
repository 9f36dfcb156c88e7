package services

import "testing"

func TestExtractSymbol(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"What's $AAPL worth today?", "AAPL"},
		{"what about $tsla", "TSLA"},
		{"ticker: msft earnings", "MSFT"},
		{"Symbol NVDA please", "NVDA"},
		{"How is AAPL doing?", "AAPL"},
		{"Is THE market up?", ""},
		{"Tell me about the market", ""},
		{"ALL of it", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ExtractSymbol(tc.query); got != tc.want {
			t.Errorf("ExtractSymbol(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractSymbolDollarTakesPrecedence(t *testing.T) {
	if got := ExtractSymbol("Compare MSFT against $AAPL"); got != "AAPL" {
		t.Fatalf("dollar-prefixed symbol not preferred: %q", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"Tell me about Apple stock performance", "apple"},
		{"should I buy shares of Palantir Technologies?", "palantir technologies"},
		{"the a an", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ExtractKeywords(tc.query); got != tc.want {
			t.Errorf("ExtractKeywords(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractKeywordsCapsAtThree(t *testing.T) {
	got := ExtractKeywords("Berkshire Hathaway class b holdings report details")
	if got != "berkshire hathaway class" {
		t.Fatalf("keyword cap broken: %q", got)
	}
}

func TestNeedsRecentNews(t *testing.T) {
	positive := []string{
		"latest news on Apple",
		"any recent developments?",
		"What happened TODAY?",
		"the earnings report",
	}
	for _, q := range positive {
		if !NeedsRecentNews(q) {
			t.Errorf("NeedsRecentNews(%q) = false, want true", q)
		}
	}

	negative := []string{
		"What is the P/E ratio of AAPL?",
		"describe the company",
	}
	for _, q := range negative {
		if NeedsRecentNews(q) {
			t.Errorf("NeedsRecentNews(%q) = true, want false", q)
		}
	}
}
