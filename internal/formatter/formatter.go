// package formatter provides functions to export a computed backlog to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/desertthunder/ytfm/internal/tasks"
)

// Format names an export format accepted by [Export].
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a format name, accepting "md" and "txt" as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (use text, csv, markdown or json)", shared.ErrInvalidArgument, name)
	}
}

// BacklogExport is a computed backlog with the history sizes it was derived from.
type BacklogExport struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	CandidateCount int              `json:"candidate_count"`
	ReferenceCount int              `json:"reference_count"`
	Plays          []models.Play    `json:"plays"`
	Hints          []tasks.NearMiss `json:"hints,omitempty"`
}

// NewBacklogExport builds a [BacklogExport] from the result of [tasks.ScrobbleEngine.Backlog].
func NewBacklogExport(result *tasks.BacklogResult, hints []tasks.NearMiss, at time.Time) *BacklogExport {
	return &BacklogExport{
		GeneratedAt:    at,
		CandidateCount: len(result.Candidate),
		ReferenceCount: len(result.Reference),
		Plays:          result.Backlog,
		Hints:          hints,
	}
}

// hintFor returns the near miss reported for play, if any
func (e *BacklogExport) hintFor(play models.Play) (tasks.NearMiss, bool) {
	for _, h := range e.Hints {
		if h.Play == play {
			return h, true
		}
	}
	return tasks.NearMiss{}, false
}

// Export renders the backlog in the given format.
func Export(export *BacklogExport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a BacklogExport to CSV format with columns: Position, Artist, Title, Closest Match, Similarity
func ExportToCSV(export *BacklogExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Closest Match", "Similarity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, play := range export.Plays {
		record := []string{strconv.Itoa(i + 1), play.Artist, play.Title, "", ""}
		if hint, ok := export.hintFor(play); ok {
			record[3] = hint.Closest.String()
			record[4] = strconv.FormatFloat(hint.Score, 'f', 3, 64)
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

// ExportToMarkdown converts a BacklogExport to a Markdown report
func ExportToMarkdown(export *BacklogExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Scrobble backlog\n\n")
	if !export.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Generated**: %s\n", export.GeneratedAt.Format(time.RFC1123)))
	}
	buf.WriteString(fmt.Sprintf("**YouTube Music history**: %d\n", export.CandidateCount))
	buf.WriteString(fmt.Sprintf("**Last.fm history**: %d\n", export.ReferenceCount))
	buf.WriteString(fmt.Sprintf("**New tracks**: %d\n\n", len(export.Plays)))

	if len(export.Plays) == 0 {
		buf.WriteString("Nothing to do: history is already in sync.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Tracks\n\n")
	for i, play := range export.Plays {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, play.Artist, play.Title))
	}

	if len(export.Hints) > 0 {
		buf.WriteString("\n## Near misses\n\n")
		buf.WriteString("| Backlog | Closest on Last.fm | Similarity |\n")
		buf.WriteString("| --- | --- | --- |\n")
		for _, h := range export.Hints {
			buf.WriteString(fmt.Sprintf("| %s | %s | %.3f |\n", h.Play, h.Closest, h.Score))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a BacklogExport to plain text format
func ExportToText(export *BacklogExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("YouTube Music history: %d\n", export.CandidateCount))
	buf.WriteString(fmt.Sprintf("Last.fm history: %d\n", export.ReferenceCount))
	buf.WriteString(fmt.Sprintf("New tracks: %d\n\n", len(export.Plays)))

	for i, play := range export.Plays {
		line := fmt.Sprintf("%d. %s - %s", i+1, play.Artist, play.Title)
		if hint, ok := export.hintFor(play); ok {
			line += fmt.Sprintf("  (close to %s, %.2f)", hint.Closest, hint.Score)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a BacklogExport to indented JSON
func ExportToJSON(export *BacklogExport) ([]byte, error) {
	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backlog: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders the backlog and writes it to path.
func WriteExport(export *BacklogExport, format Format, path string) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	data, err := Export(export, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return nil
}
