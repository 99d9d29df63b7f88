package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/radiumhq/radium/internal/format"
)

// Format selects the export encoding, per spec §4.L.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Export renders records in the requested Format.
func Export(records []Record, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return exportCSV(records)
	case FormatJSON:
		return exportJSON(records)
	case FormatMarkdown:
		return exportMarkdown(records), nil
	default:
		return "", fmt.Errorf("telemetry: unknown export format %q", format)
	}
}

func exportCSV(records []Record) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	header := []string{"agent_id", "timestamp", "provider", "model", "input_tokens", "output_tokens", "cached_tokens", "cost"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			r.AgentID,
			r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			r.Provider,
			r.Model,
			strconv.FormatInt(r.Usage.InputTokens, 10),
			strconv.FormatInt(r.Usage.OutputTokens, 10),
			strconv.FormatInt(r.Usage.CachedTokens, 10),
			strconv.FormatFloat(r.estimatedCost, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func exportJSON(records []Record) (string, error) {
	type row struct {
		AgentID      string  `json:"agent_id"`
		Timestamp    string  `json:"timestamp"`
		Provider     string  `json:"provider"`
		Model        string  `json:"model"`
		InputTokens  int64   `json:"input_tokens"`
		OutputTokens int64   `json:"output_tokens"`
		CachedTokens int64   `json:"cached_tokens"`
		Cost         float64 `json:"estimated_cost"`
	}
	rows := make([]row, 0, len(records))
	for _, r := range records {
		rows = append(rows, row{
			AgentID: r.AgentID, Timestamp: r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Provider: r.Provider, Model: r.Model,
			InputTokens: r.Usage.InputTokens, OutputTokens: r.Usage.OutputTokens, CachedTokens: r.Usage.CachedTokens,
			Cost: r.estimatedCost,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// exportMarkdown hand-rolls a Markdown table, matching the teacher's
// usage/format.go style of building formatted text without a templating
// dependency.
func exportMarkdown(records []Record) string {
	var b strings.Builder
	b.WriteString("| Agent | Timestamp | Provider | Model | In | Out | Cached | Cost |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d | %d | %s |\n",
			r.AgentID, r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), r.Provider, r.Model,
			r.Usage.InputTokens, r.Usage.OutputTokens, r.Usage.CachedTokens, FormatUSD(r.estimatedCost))
	}
	if summary := Summarize(records, nil); summary.SpanMs > 0 {
		fmt.Fprintf(&b, "\n_%d calls over %s_\n", summary.TotalCalls, format.FormatDurationSeconds(summary.SpanMs, &format.DurationSecondsOptions{Unit: "seconds"}))
	}
	return b.String()
}

// FormatTokenCount formats a token count for display, carried over from
// the teacher's usage.FormatTokenCount.
func FormatTokenCount(count int64) string {
	switch {
	case count <= 0:
		return "0"
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(count)/1_000_000)
	case count >= 10_000:
		return fmt.Sprintf("%dk", count/1_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fk", float64(count)/1_000)
	default:
		return strconv.FormatInt(count, 10)
	}
}

// FormatUSD formats a dollar amount for display, carried over from the
// teacher's usage.FormatUSD.
func FormatUSD(amount float64) string {
	if amount <= 0 {
		return "$0.00"
	}
	if amount >= 0.01 {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("$%.4f", amount)
}
