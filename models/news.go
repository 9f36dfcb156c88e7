package models

import "time"

// NewsArticle is one scraped or collector-supplied article. A zero Published
// time means the publication date could not be parsed; such articles sort
// last when ordering by recency. Articles are never mutated after creation.
type NewsArticle struct {
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Published time.Time `json:"published,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Symbol    string    `json:"symbol"`
	Source    string    `json:"source"`
}
