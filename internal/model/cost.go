// Package model defines the cost report types returned by a scan.
package model

// TokenCostSnapshot holds token counts and their priced cost for one model,
// either within a single day or totaled across the whole window.
type TokenCostSnapshot struct {
	Model               string  `json:"model"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	InputCost           float64 `json:"input_cost"`
	OutputCost          float64 `json:"output_cost"`
	CacheReadCost       float64 `json:"cache_read_cost"`
	CacheCreationCost   float64 `json:"cache_creation_cost"`
	TotalCost           float64 `json:"total_cost"`
}

// DailyReport is one calendar day's per-model breakdown and total.
type DailyReport struct {
	Date      string              `json:"date"` // YYYY-MM-DD
	Costs     []TokenCostSnapshot `json:"costs"`
	TotalCost float64             `json:"total_cost"`
}

// CostSummary is the full cost report for one provider over a trailing window.
// ByModel is sorted by descending cost, Daily by descending date.
type CostSummary struct {
	TotalCost float64             `json:"total_cost"`
	TodayCost float64             `json:"today_cost"`
	Days      int                 `json:"days"`
	ByModel   []TokenCostSnapshot `json:"by_model"`
	Daily     []DailyReport       `json:"daily"`
}
