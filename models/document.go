package models

import "time"

// DocType categorizes an indexed document. The retriever uses it for
// diversity scoring when selecting context under a length budget.
type DocType string

const (
	DocTypeOverview   DocType = "overview"
	DocTypeFinancial  DocType = "financial"
	DocTypeHistorical DocType = "historical"
	DocTypeNews       DocType = "news"
	DocTypeAnalyst    DocType = "analyst"
)

// Document is one retrievable unit in the vector store. Text is non-empty
// and Symbol is an uppercase 1-5 letter ticker. Documents are immutable once
// embedded; removal happens only through a per-symbol purge and rebuild.
type Document struct {
	Text      string            `json:"text"`
	Type      DocType           `json:"type"`
	Symbol    string            `json:"symbol"`
	Timestamp time.Time         `json:"timestamp"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ContextChunk is a scored retrieval result. Score is the raw inner product
// of normalized vectors (cosine similarity), higher is more similar.
type ContextChunk struct {
	Text     string   `json:"text"`
	Metadata Document `json:"metadata"`
	Score    float64  `json:"score"`
	Source   string   `json:"source"`
}

// IndexStats summarizes the vector store.
type IndexStats struct {
	TotalDocuments int      `json:"total_documents"`
	TotalCompanies int      `json:"total_companies"`
	IndexSize      int      `json:"index_size"`
	Dimension      int      `json:"dimension"`
	Companies      []string `json:"companies"`
}
