// Package usage keeps an in-memory ledger of model token usage and spend.
package usage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Record is one model call.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Operation    string    `json:"operation"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	// Priced is false when no local price was known for Model.
	Priced bool `json:"priced"`
}

// Total aggregates records for one provider/model pair.
type Total struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Summary is the ledger state since process start.
type Summary struct {
	Since   time.Time `json:"since"`
	Calls   int       `json:"calls"`
	CostUSD float64   `json:"cost_usd"`
	Totals  []Total   `json:"totals"`
}

// Tracker appends usage records and computes totals. Nothing is persisted.
type Tracker struct {
	mu      sync.Mutex
	since   time.Time
	records []Record
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{since: time.Now()}
}

// Append stores one usage record, pricing it when CostUSD is unset.
func (t *Tracker) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.InputTokens + rec.OutputTokens
	}
	if rec.CostUSD == 0 {
		rec.CostUSD, rec.Priced = EstimateUSD(rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens)
	} else {
		rec.Priced = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	return nil
}

// Records returns a copy of every stored record in append order.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.records...)
}

// Summary returns totals per provider/model sorted by provider then model.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	type key struct{ provider, model string }
	byKey := map[key]*Total{}
	out := Summary{Since: t.since, Totals: []Total{}}
	for _, rec := range t.records {
		k := key{rec.Provider, rec.Model}
		tot, ok := byKey[k]
		if !ok {
			tot = &Total{Provider: rec.Provider, Model: rec.Model}
			byKey[k] = tot
		}
		tot.Calls++
		tot.InputTokens += rec.InputTokens
		tot.OutputTokens += rec.OutputTokens
		tot.TotalTokens += rec.TotalTokens
		tot.CostUSD += rec.CostUSD

		out.Calls++
		out.CostUSD += rec.CostUSD
	}

	for _, tot := range byKey {
		out.Totals = append(out.Totals, *tot)
	}
	sort.Slice(out.Totals, func(i, j int) bool {
		if out.Totals[i].Provider != out.Totals[j].Provider {
			return out.Totals[i].Provider < out.Totals[j].Provider
		}
		return out.Totals[i].Model < out.Totals[j].Model
	})
	return out
}
