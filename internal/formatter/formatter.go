// package formatter renders match session reports in various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/samber/lo"
)

// Format is a report output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a format name or file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, name)
	}
}

// Extension returns the file extension used for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Report is the printable summary of a match session.
type Report struct {
	Source      models.Playlist      `json:"source"`
	Destination models.Platform      `json:"destination"`
	Created     *models.Playlist     `json:"created,omitempty"`
	Results     []models.MatchResult `json:"-"`
	Total       int                  `json:"total"`
	Matched     int                  `json:"matched"`
	ErrorCount  int                  `json:"errors"`
	Cancelled   bool                 `json:"cancelled,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// NewReport summarizes results. Total is the number of source tracks attempted.
func NewReport(source models.Playlist, dest models.Platform, results []models.MatchResult, errorCount int) *Report {
	return &Report{
		Source:      source,
		Destination: dest,
		Results:     results,
		Total:       len(results),
		Matched:     lo.CountBy(results, func(r models.MatchResult) bool { return r.IsMatched() }),
		ErrorCount:  errorCount,
		GeneratedAt: time.Now().UTC(),
	}
}

// MatchPercentage is Matched/Total as a percentage, 0 for an empty report.
func (r *Report) MatchPercentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total) * 100
}

// Unmatched returns the results without a selected track.
func (r *Report) Unmatched() []models.MatchResult {
	return lo.Reject(r.Results, func(res models.MatchResult, _ int) bool { return res.IsMatched() })
}

// Render encodes r in format.
func Render(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ReportToCSV(r)
	case FormatMarkdown:
		return ReportToMarkdown(r)
	case FormatJSON:
		return ReportToJSON(r)
	case FormatText:
		return ReportToText(r)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, format)
	}
}

// ReportToCSV writes one row per source track with columns: #, Source Artist, Source Title,
// Confidence, Reason, Matched ID, Matched Artist, Matched Title, Duration, Suggestions, Error
func ReportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"#", "Source Artist", "Source Title", "Confidence", "Reason", "Matched ID", "Matched Artist", "Matched Title", "Duration", "Suggestions", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, res := range r.Results {
		var id, artist, title, duration string
		if res.Matched != nil {
			id, artist, title = res.Matched.ID, res.Matched.Artist, res.Matched.Title
			duration = strconv.Itoa(res.Matched.Duration)
		}
		record := []string{
			strconv.Itoa(i + 1),
			res.Source.Artist,
			res.Source.Title,
			res.Confidence.String(),
			res.Reason,
			id,
			artist,
			title,
			duration,
			strings.Join(lo.Map(res.Suggestions, func(t models.Track, _ int) string { return t.String() }), "; "),
			errorText(res.Error),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToMarkdown renders a summary table followed by the tracks that need attention.
func ReportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s → %s\n\n", r.Source.Name, r.Destination.DisplayName())
	fmt.Fprintf(&buf, "**Matched**: %d/%d (%.1f%%)\n", r.Matched, r.Total, r.MatchPercentage())
	fmt.Fprintf(&buf, "**Errors**: %d\n", r.ErrorCount)
	if r.Created != nil {
		fmt.Fprintf(&buf, "**Created**: %s (%s)\n", r.Created.Name, r.Created.ID)
	}
	if r.Cancelled {
		buf.WriteString("**Cancelled**: yes\n")
	}

	buf.WriteString("\n## Tracks\n\n")
	buf.WriteString("| # | Source | Match | Confidence | Reason |\n")
	buf.WriteString("|---|--------|-------|------------|--------|\n")
	for i, res := range r.Results {
		match := "—"
		if res.Matched != nil {
			match = fmt.Sprintf("%s [%s]", escapeCell(res.Matched.String()), FormatDuration(res.Matched.Duration))
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s |\n", i+1, escapeCell(res.Source.String()), match, res.Confidence, escapeCell(res.Reason))
	}

	unmatched := r.Unmatched()
	if len(unmatched) > 0 {
		buf.WriteString("\n## Unmatched\n\n")
		for _, res := range unmatched {
			fmt.Fprintf(&buf, "- %s", res.Source)
			if res.Error != nil {
				fmt.Fprintf(&buf, " (error: %s)", res.Error)
			}
			buf.WriteString("\n")
			for _, s := range res.Suggestions {
				fmt.Fprintf(&buf, "  - suggestion: %s\n", s)
			}
		}
	}
	return buf.Bytes(), nil
}

// ReportToText renders the report as plain text.
func ReportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", r.Source.Name)
	fmt.Fprintf(&buf, "Destination: %s\n", r.Destination.DisplayName())
	fmt.Fprintf(&buf, "Matched: %d/%d (%.1f%%)\n", r.Matched, r.Total, r.MatchPercentage())
	fmt.Fprintf(&buf, "Errors: %d\n\n", r.ErrorCount)

	for i, res := range r.Results {
		if res.Matched == nil {
			fmt.Fprintf(&buf, "%d. [%s] %s -> no match\n", i+1, res.Confidence, res.Source)
			continue
		}
		fmt.Fprintf(&buf, "%d. [%s] %s -> %s\n", i+1, res.Confidence, res.Source, res.Matched)
	}
	return buf.Bytes(), nil
}

type jsonResult struct {
	models.MatchResult
	Index int    `json:"index"`
	Error string `json:"error,omitempty"`
}

// ReportToJSON renders the report and every result as indented JSON.
func ReportToJSON(r *Report) ([]byte, error) {
	results := make([]jsonResult, len(r.Results))
	for i, res := range r.Results {
		results[i] = jsonResult{MatchResult: res, Index: i + 1, Error: errorText(res.Error)}
	}

	payload := struct {
		*Report
		MatchPercentage float64      `json:"match_percentage"`
		Results         []jsonResult `json:"results"`
	}{r, r.MatchPercentage(), results}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport renders r and writes it to path.
//
// Defaults to {source playlist ID}_report.{ext} as the filename.
func WriteReport(r *Report, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.%s", r.Source.ID, format.Extension())
	}

	data, err := Render(r, format)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// FormatDuration renders seconds as m:ss or h:mm:ss, and --:-- when unknown.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "--:--"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
