// Package export streams stored cycles in formats suitable for
// feeding into a target dataset.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSONL, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q (want jsonl or csv)", s)
	}
}

const dateFormat = "2006-01-02"

// record is the JSONL shape, one object per cycle.
type record struct {
	ProfileID string  `json:"profile_id"`
	Cycle     int     `json:"cycle"`
	StartDate string  `json:"start_date"`
	BleedDays float64 `json:"bleed_days"`
	Note      string  `json:"note,omitempty"`
}

// Write streams cycles to w in the given format.
func Write(w io.Writer, format Format, cycles []storage.Cycle) error {
	switch format {
	case FormatJSONL:
		return WriteJSONL(w, cycles)
	case FormatCSV:
		return WriteCSV(w, cycles)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, cycles []storage.Cycle) error {
	enc := json.NewEncoder(w)
	for _, c := range cycles {
		if err := enc.Encode(record{
			ProfileID: c.ProfileID,
			Cycle:     c.Seq,
			StartDate: c.StartDate.Format(dateFormat),
			BleedDays: c.BleedDays,
			Note:      c.Note,
		}); err != nil {
			return fmt.Errorf("encoding cycle %d for profile %s: %w", c.Seq, c.ProfileID, err)
		}
	}
	return nil
}

// WriteCSV writes a header row followed by one row per cycle.
func WriteCSV(w io.Writer, cycles []storage.Cycle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"profile_id", "cycle", "start_date", "bleed_days", "note"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range cycles {
		row := []string{
			c.ProfileID,
			strconv.Itoa(c.Seq),
			c.StartDate.Format(dateFormat),
			strconv.FormatFloat(c.BleedDays, 'f', -1, 64),
			c.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing cycle %d for profile %s: %w", c.Seq, c.ProfileID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
