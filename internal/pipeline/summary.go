// Package pipeline composes discovery, parsing, caching, and aggregation into
// the single scan that produces per-provider cost summaries.
package pipeline

import (
	"sort"

	"github.com/j0nl1/aitracker/internal/model"
	"github.com/j0nl1/aitracker/internal/pricing"
	"github.com/j0nl1/aitracker/internal/source"
)

type dateModelKey struct {
	date  string
	model string
}

// BuildSummary aggregates records into a cost summary for one provider. It is
// a pure function of its inputs: records are grouped by (date, model), each
// group is priced (zero when the model is unknown), and the result carries a
// newest-first daily breakdown, a by-model breakdown sorted by descending
// cost, the grand total, and the total for today.
func BuildSummary(records []source.Record, days int, today string) model.CostSummary {
	groups := make(map[dateModelKey]*source.Record)
	for _, r := range records {
		key := dateModelKey{date: r.Date, model: r.Model}
		g, ok := groups[key]
		if !ok {
			g = &source.Record{Provider: r.Provider, Model: r.Model, Date: r.Date}
			groups[key] = g
		}
		g.InputTokens += r.InputTokens
		g.OutputTokens += r.OutputTokens
		g.CacheReadTokens += r.CacheReadTokens
		g.CacheCreationTokens += r.CacheCreationTokens
	}

	dailyMap := make(map[string][]model.TokenCostSnapshot)
	modelTotals := make(map[string]*model.TokenCostSnapshot)

	for key, g := range groups {
		var inputCost, outputCost, cacheReadCost, cacheCreationCost float64
		if p := pricing.Lookup(g.Model); p != nil {
			inputCost, outputCost, cacheReadCost, cacheCreationCost = pricing.CalculateCost(
				p, g.InputTokens, g.OutputTokens, g.CacheReadTokens, g.CacheCreationTokens)
		}
		totalCost := inputCost + outputCost + cacheReadCost + cacheCreationCost

		snap := model.TokenCostSnapshot{
			Model:               g.Model,
			InputTokens:         g.InputTokens,
			OutputTokens:        g.OutputTokens,
			CacheReadTokens:     g.CacheReadTokens,
			CacheCreationTokens: g.CacheCreationTokens,
			InputCost:           inputCost,
			OutputCost:          outputCost,
			CacheReadCost:       cacheReadCost,
			CacheCreationCost:   cacheCreationCost,
			TotalCost:           totalCost,
		}
		dailyMap[key.date] = append(dailyMap[key.date], snap)

		mt, ok := modelTotals[g.Model]
		if !ok {
			mt = &model.TokenCostSnapshot{Model: g.Model}
			modelTotals[g.Model] = mt
		}
		mt.InputTokens += snap.InputTokens
		mt.OutputTokens += snap.OutputTokens
		mt.CacheReadTokens += snap.CacheReadTokens
		mt.CacheCreationTokens += snap.CacheCreationTokens
		mt.InputCost += snap.InputCost
		mt.OutputCost += snap.OutputCost
		mt.CacheReadCost += snap.CacheReadCost
		mt.CacheCreationCost += snap.CacheCreationCost
		mt.TotalCost += snap.TotalCost
	}

	daily := make([]model.DailyReport, 0, len(dailyMap))
	for date, costs := range dailyMap {
		sort.Slice(costs, func(i, j int) bool {
			return costs[i].TotalCost > costs[j].TotalCost
		})
		var dayTotal float64
		for _, c := range costs {
			dayTotal += c.TotalCost
		}
		daily = append(daily, model.DailyReport{Date: date, Costs: costs, TotalCost: dayTotal})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date > daily[j].Date
	})

	byModel := make([]model.TokenCostSnapshot, 0, len(modelTotals))
	for _, mt := range modelTotals {
		byModel = append(byModel, *mt)
	}
	sort.Slice(byModel, func(i, j int) bool {
		return byModel[i].TotalCost > byModel[j].TotalCost
	})

	var totalCost float64
	for _, m := range byModel {
		totalCost += m.TotalCost
	}
	var todayCost float64
	for _, d := range daily {
		if d.Date == today {
			todayCost = d.TotalCost
			break
		}
	}

	return model.CostSummary{
		TotalCost: totalCost,
		TodayCost: todayCost,
		Days:      days,
		ByModel:   byModel,
		Daily:     daily,
	}
}
