package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pfrederiksen/pervye-events/internal/cycle"
	"github.com/pfrederiksen/pervye-events/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Column widths of the sent table, in terminal cells
const (
	idColumnWidth    = 46
	titleColumnWidth = 48
)

// CheckOutput is the JSON shape of a cycle result
type CheckOutput struct {
	RunID     string `json:"run_id"`
	Extracted int    `json:"extracted"`
	Sent      int    `json:"sent"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// SentRecord is the JSON shape of a stored event
type SentRecord struct {
	EventID  string `json:"event_id"`
	Title    string `json:"title"`
	SentTime string `json:"sent_time"`
}

// SentOutput is the JSON shape of the sent listing
type SentOutput struct {
	Total  int64        `json:"total"`
	Events []SentRecord `json:"events"`
}

// WriteResult writes the summary of one cycle
func WriteResult(w io.Writer, res cycle.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		out := CheckOutput{
			RunID:     res.RunID,
			Extracted: res.Extracted,
			Sent:      res.Sent,
			Skipped:   res.Skipped,
			Failed:    res.Failed,
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return writeJSON(w, out)
	case FormatText:
		if res.Err != nil {
			fmt.Fprintf(w, "Check failed: %v\n", res.Err)
		}
		if res.Extracted == 0 && res.Err == nil {
			fmt.Fprintln(w, "No events found.")
			return nil
		}
		fmt.Fprintf(w, "Extracted: %d, sent: %d, already sent: %d, failed: %d\n",
			res.Extracted, res.Sent, res.Skipped, res.Failed)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteProbe writes the outcome of a connectivity test
func WriteProbe(w io.Writer, url string, statusCode int, err error) {
	if err != nil {
		fmt.Fprintf(w, "Connection error: %v\n", err)
		return
	}
	if statusCode == 200 {
		fmt.Fprintf(w, "Site reachable: %s\n", url)
	} else {
		fmt.Fprintf(w, "Site unreachable: %s\n", url)
	}
	fmt.Fprintf(w, "Response code: %d\n", statusCode)
}

// WriteSent writes stored events in the specified format
func WriteSent(w io.Writer, records []storage.SentEvent, total int64, format OutputFormat) error {
	switch format {
	case FormatJSON:
		out := SentOutput{Total: total, Events: make([]SentRecord, 0, len(records))}
		for _, r := range records {
			out.Events = append(out.Events, SentRecord{EventID: r.EventID, Title: r.Title, SentTime: r.SentTime})
		}
		return writeJSON(w, out)
	case FormatText:
		return writeSentTable(w, records, total)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeSentTable prints an aligned table; widths are measured in terminal
// cells so Cyrillic and wide characters line up.
func writeSentTable(w io.Writer, records []storage.SentEvent, total int64) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No events sent yet.")
		return nil
	}

	fmt.Fprintf(w, "%s  %s  %s\n", cell("ID", idColumnWidth), cell("TITLE", titleColumnWidth), "SENT")
	fmt.Fprintf(w, "%s  %s  %s\n",
		strings.Repeat("-", idColumnWidth),
		strings.Repeat("-", titleColumnWidth),
		strings.Repeat("-", len("2006-01-02 15:04")))

	for _, r := range records {
		sent := r.SentTime
		if t := r.SentAt(); !t.IsZero() {
			sent = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s  %s  %s\n", cell(r.EventID, idColumnWidth), cell(r.Title, titleColumnWidth), sent)
	}

	fmt.Fprintf(w, "\nShowing %d of %d\n", len(records), total)
	return nil
}

// cell truncates s to width cells and pads it on the right
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}
