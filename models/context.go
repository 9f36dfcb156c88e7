package models

import "time"

// ContextBundle is the structured result of one retrieval call. It exposes
// both the raw pieces for programmatic use and the final formatted string
// for LLM grounding. A bundle is always one of: populated, empty (with
// reason), or needs-clarification. It is never an error.
type ContextBundle struct {
	Query              string         `json:"query"`
	Symbol             string         `json:"symbol,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
	Sources            []string       `json:"sources"`
	Chunks             []ContextChunk `json:"context_chunks"`
	Selected           []ContextChunk `json:"selected_context"`
	Record             *StockRecord   `json:"raw_data,omitempty"`
	WebNews            []NewsArticle  `json:"web_news,omitempty"`
	FormattedContext   string         `json:"formatted_context"`
	NeedsClarification bool           `json:"needs_clarification,omitempty"`
	Message            string         `json:"message,omitempty"`
	Candidates         []CompanyMatch `json:"candidates,omitempty"`
}

// CacheStats reports TTL cache occupancy.
type CacheStats struct {
	TotalEntries   int     `json:"total_entries"`
	ValidEntries   int     `json:"valid_entries"`
	ExpiredEntries int     `json:"expired_entries"`
	TTLMinutes     float64 `json:"ttl_minutes"`
}
