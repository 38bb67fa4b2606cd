package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

func fixtureCycles() []storage.Cycle {
	return []storage.Cycle{
		{
			ID:        "c-1",
			ProfileID: "p-1",
			Seq:       1,
			StartDate: time.Date(2024, time.January, 29, 0, 0, 0, 0, time.UTC),
			BleedDays: 4.5,
		},
		{
			ID:        "c-2",
			ProfileID: "p-1",
			Seq:       2,
			StartDate: time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC),
			BleedDays: 5,
			Note:      "Was pregnant, aborted or miscarried",
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"jsonl", "csv"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, fixtureCycles()); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first["profile_id"] != "p-1" {
		t.Errorf("profile_id = %v", first["profile_id"])
	}
	if first["start_date"] != "2024-01-29" {
		t.Errorf("start_date = %v", first["start_date"])
	}
	if first["bleed_days"] != 4.5 {
		t.Errorf("bleed_days = %v", first["bleed_days"])
	}
	if _, present := first["note"]; present {
		t.Error("empty note should be omitted")
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 is not valid JSON: %v", err)
	}
	if second["note"] != "Was pregnant, aborted or miscarried" {
		t.Errorf("note = %v", second["note"])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fixtureCycles()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	wantHeader := []string{"profile_id", "cycle", "start_date", "bleed_days", "note"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header column %d = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][2] != "2024-01-29" || rows[1][3] != "4.5" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][4] != "Was pregnant, aborted or miscarried" {
		t.Errorf("unexpected note in second row: %v", rows[2])
	}
}

func TestWrite_DispatchesByFormat(t *testing.T) {
	var jsonl, csvBuf bytes.Buffer
	if err := Write(&jsonl, FormatJSONL, fixtureCycles()); err != nil {
		t.Fatalf("Write jsonl: %v", err)
	}
	if err := Write(&csvBuf, FormatCSV, fixtureCycles()); err != nil {
		t.Fatalf("Write csv: %v", err)
	}
	if !strings.HasPrefix(jsonl.String(), "{") {
		t.Error("jsonl output does not look like JSON lines")
	}
	if !strings.HasPrefix(csvBuf.String(), "profile_id,") {
		t.Error("csv output missing header")
	}
	if err := Write(&jsonl, Format("xml"), nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
