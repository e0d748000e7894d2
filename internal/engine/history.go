package engine

import (
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/speedtype/internal/model"
)

// DefaultHistoryLimit is the number of results kept when no limit is configured.
const DefaultHistoryLimit = 20

// History is a bounded list of results, newest first.
type History struct {
	limit   int
	results []model.TestResult
}

// NewHistory returns a history holding at most limit results, seeded with results (newest first).
func NewHistory(limit int, results []model.TestResult) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := &History{limit: limit}
	h.results = append(h.results, results[:min(len(results), limit)]...)
	return h
}

// Append puts r at the head, evicting the oldest result beyond the limit.
func (h *History) Append(r model.TestResult) {
	h.results = append([]model.TestResult{r}, h.results...)
	if len(h.results) > h.limit {
		h.results = h.results[:h.limit]
	}
}

// Results returns a copy of the results, newest first.
func (h *History) Results() []model.TestResult {
	out := make([]model.TestResult, len(h.results))
	copy(out, h.results)
	return out
}

// Clear drops every result.
func (h *History) Clear() {
	h.results = nil
}

// Best returns the result with the highest WPM. Ties keep the newer result.
func (h *History) Best() (model.TestResult, bool) {
	if len(h.results) == 0 {
		return model.TestResult{}, false
	}
	best := h.results[0]
	for _, r := range h.results[1:] {
		if r.WPM > best.WPM {
			best = r
		}
	}
	return best, true
}

// Serialize renders the results as an indented JSON array.
func (h *History) Serialize() ([]byte, error) {
	return SerializeResults(h.results)
}

// SerializeResults renders results as an indented JSON array.
func SerializeResults(results []model.TestResult) ([]byte, error) {
	if results == nil {
		results = []model.TestResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return data, nil
}

// DeserializeHistory parses the output of Serialize. Every record must pass
// TestResult.Validate; the first bad record fails the whole decode.
func DeserializeHistory(data []byte) ([]model.TestResult, error) {
	var results []model.TestResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	for i, r := range results {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("history record %d: %w", i, err)
		}
	}
	return results, nil
}
