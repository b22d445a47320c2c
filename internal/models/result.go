package models

import "github.com/hyperjump/kazoeru/pkg/utils"

// ScopeAll is the scope name of the single corpus-wide row.
const ScopeAll = "All Standard Works"

// ResultRow is the frequency of a term in one scope.
type ResultRow struct {
	Scope      string `json:"scope"`
	Work       string `json:"work,omitempty"`
	RawCount   int    `json:"raw_count"`
	TotalWords int    `json:"total_words_in_scope"`
	// Rate is the unrounded occurrences per 10,000 words. Ranking uses it.
	Rate float64 `json:"rate_exact"`
	// RatePer10k is Rate rounded to two decimals for display.
	RatePer10k float64 `json:"rate_per_10k"`
	Rank       int     `json:"rank"`
}

// NewResultRow computes the rates for raw occurrences in a scope of total words.
func NewResultRow(scope, work string, raw, total int) *ResultRow {
	rate := RatePer10k(raw, total)
	return &ResultRow{
		Scope:      scope,
		Work:       work,
		RawCount:   raw,
		TotalWords: total,
		Rate:       rate,
		RatePer10k: utils.RoundTo(rate, 2),
	}
}

// RatePer10k returns raw / total * 10000, or 0 for an empty scope.
func RatePer10k(raw, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(raw) / float64(total) * 10000
}

// FrequencyResponse is the ranked answer to a FrequencyQuery.
type FrequencyResponse struct {
	Term        string       `json:"term"`
	Normalized  string       `json:"normalized"`
	Tokens      int          `json:"tokens"`
	Granularity Granularity  `json:"granularity"`
	Rows        []*ResultRow `json:"rows"`
	TotalCount  int          `json:"total_count"`
	QueryTime   int64        `json:"query_time_ms"`
}

// VerseHit is one verse matching a VerseQuery.
type VerseHit struct {
	Reference string `json:"reference"`
	Verse     *Verse `json:"verse"`
}

// VerseResponse is the answer to a VerseQuery.
type VerseResponse struct {
	Term       string      `json:"term"`
	Normalized string      `json:"normalized"`
	Hits       []*VerseHit `json:"hits"`
	Total      uint64      `json:"total"`
	QueryTime  int64       `json:"query_time_ms"`
}
