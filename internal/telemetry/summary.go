package telemetry

import (
	"sort"
	"time"

	"github.com/radiumhq/radium/internal/format"
)

// Summary aggregates a set of Records, per spec §4.L: "totals, per
// provider/model/plan breakdowns, top N plans, and an optional tier
// breakdown."
type Summary struct {
	TotalCalls  int
	TotalTokens int64
	TotalCost   float64

	// SpanMs is the wall-clock distance between the earliest and latest
	// record's timestamp, in milliseconds. Zero when fewer than two
	// records were summarized.
	SpanMs float64

	ByProvider map[string]Breakdown
	ByModel    map[string]Breakdown

	Tier *TierBreakdown
}

// FormattedSpan renders SpanMs with format.FormatDurationSeconds, the
// same helper the teacher's usage summary uses to report a report's
// covered time range.
func (s Summary) FormattedSpan() string {
	return format.FormatDurationSeconds(s.SpanMs, nil)
}

// Breakdown is one group's aggregated usage/cost.
type Breakdown struct {
	Calls int
	Usage Usage
	Cost  float64
}

// TierBreakdown compares Smart vs Eco request volume/cost, with an
// estimated savings figure relative to an all-Smart baseline.
type TierBreakdown struct {
	SmartCalls  int
	SmartTokens int64
	SmartCost   float64
	EcoCalls    int
	EcoTokens   int64
	EcoCost     float64
	// EstimatedSavings is SmartCost-equivalent for the Eco calls minus
	// their actual cost, i.e. what would have been spent had every Eco
	// call instead gone to the Smart rate implied by SmartCost/SmartTokens.
	EstimatedSavings float64
}

// Summarize aggregates records. tierOf, when non-nil, classifies each
// record's tier (Smart/Eco) by model name for the optional tier breakdown.
func Summarize(records []Record, tierOf func(model string) (tier string, isSmart bool)) Summary {
	s := Summary{ByProvider: make(map[string]Breakdown), ByModel: make(map[string]Breakdown)}

	var smartTokens, ecoTokens int64
	var smartCost, ecoCost float64
	var earliest, latest time.Time

	for _, r := range records {
		s.TotalCalls++
		s.TotalTokens += r.Usage.Total()
		s.TotalCost += r.estimatedCost

		if earliest.IsZero() || r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
		if latest.IsZero() || r.Timestamp.After(latest) {
			latest = r.Timestamp
		}

		pb := s.ByProvider[r.Provider]
		pb.Calls++
		pb.Usage.InputTokens += r.Usage.InputTokens
		pb.Usage.OutputTokens += r.Usage.OutputTokens
		pb.Usage.CachedTokens += r.Usage.CachedTokens
		pb.Cost += r.estimatedCost
		s.ByProvider[r.Provider] = pb

		mb := s.ByModel[r.Model]
		mb.Calls++
		mb.Usage.InputTokens += r.Usage.InputTokens
		mb.Usage.OutputTokens += r.Usage.OutputTokens
		mb.Usage.CachedTokens += r.Usage.CachedTokens
		mb.Cost += r.estimatedCost
		s.ByModel[r.Model] = mb

		if tierOf != nil {
			_, isSmart := tierOf(r.Model)
			if isSmart {
				smartTokens += r.Usage.Total()
				smartCost += r.estimatedCost
			} else {
				ecoTokens += r.Usage.Total()
				ecoCost += r.estimatedCost
			}
		}
	}

	if tierOf != nil {
		tb := &TierBreakdown{SmartTokens: smartTokens, SmartCost: smartCost, EcoTokens: ecoTokens, EcoCost: ecoCost}
		if smartTokens > 0 {
			smartRatePerToken := smartCost / float64(smartTokens)
			tb.EstimatedSavings = smartRatePerToken*float64(ecoTokens) - ecoCost
		}
		s.Tier = tb
	}

	if latest.After(earliest) {
		s.SpanMs = float64(latest.Sub(earliest).Milliseconds())
	}

	return s
}

// TopPlans returns the n plans with highest total cost, given a
// plan-id -> records grouping assembled by the caller (the telemetry
// store joins agents.plan_id; Summary itself is plan-agnostic).
func TopPlans(byPlan map[string][]Record, n int) []PlanTotal {
	totals := make([]PlanTotal, 0, len(byPlan))
	for plan, records := range byPlan {
		var cost float64
		var tokens int64
		for _, r := range records {
			cost += r.estimatedCost
			tokens += r.Usage.Total()
		}
		totals = append(totals, PlanTotal{PlanID: plan, Cost: cost, Tokens: tokens, Calls: len(records)})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Cost > totals[j].Cost })
	if n > 0 && n < len(totals) {
		totals = totals[:n]
	}
	return totals
}

// PlanTotal is one requirement/plan's aggregated cost.
type PlanTotal struct {
	PlanID string
	Cost   float64
	Tokens int64
	Calls  int
}
