package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kazoeru/internal/models"
)

func frequencyResponse() *models.FrequencyResponse {
	x := models.NewResultRow("X", "A", 2, 6)
	y := models.NewResultRow("Y", "A", 1, 4)
	z := models.NewResultRow("Z", "A", 0, 5)
	x.Rank, y.Rank, z.Rank = 1, 2, 3
	return &models.FrequencyResponse{
		Term:        "Love",
		Normalized:  "love",
		Tokens:      1,
		Granularity: models.GranularityBook,
		Rows:        []*models.ResultRow{x, y, z},
		TotalCount:  3,
		QueryTime:   1,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteFrequency_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrequency(&buf, frequencyResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteFrequency(json): %v", err)
	}
	var decoded models.FrequencyResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Rows) != 3 || decoded.Rows[0].Scope != "X" || decoded.Rows[0].RatePer10k != 3333.33 {
		t.Errorf("decoded rows = %+v", decoded.Rows)
	}
	if decoded.Granularity != models.GranularityBook {
		t.Errorf("granularity = %q", decoded.Granularity)
	}
}

func TestWriteFrequency_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrequency(&buf, frequencyResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"Love" (love) by book`, "BOOK", "WORK", "3333.33", "2500.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	var xBar, yBar, zBar int
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		n := strings.Count(line, "█")
		switch fields[1] {
		case "X":
			xBar = n
		case "Y":
			yBar = n
		case "Z":
			zBar = n
		}
	}
	if xBar != BarWidth || yBar != 30 || zBar != 0 {
		t.Errorf("bars = %d/%d/%d, want %d/30/0", xBar, yBar, zBar, BarWidth)
	}
}

func TestWriteFrequency_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrequency(&buf, frequencyResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	want := "X\t2\t6\t3333.33\nY\t1\t4\t2500.00\nZ\t0\t5\t0.00\n"
	if buf.String() != want {
		t.Errorf("compact output = %q, want %q", buf.String(), want)
	}
}

func TestWriteFrequency_AllScope(t *testing.T) {
	row := models.NewResultRow(models.ScopeAll, "", 120, 250000)
	row.Rank = 1
	resp := &models.FrequencyResponse{Term: "faith", Normalized: "faith", Granularity: models.GranularityAll, Rows: []*models.ResultRow{row}, TotalCount: 120}
	var buf bytes.Buffer
	if err := WriteFrequency(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "by corpus") || !strings.Contains(out, "4.80") || strings.Contains(out, "WORK") {
		t.Errorf("unexpected text output:\n%s", out)
	}
}

func TestWriteVerses(t *testing.T) {
	v := &models.Verse{ID: "Alma 32:21", Work: "Book of Mormon", Book: "Alma", Chapter: 32, Number: 21, Text: "And now as I said concerning faith"}
	resp := &models.VerseResponse{
		Term:       "faith",
		Normalized: "faith",
		Hits:       []*models.VerseHit{{Reference: v.Reference(), Verse: v}},
		Total:      4,
	}

	var text bytes.Buffer
	if err := WriteVerses(&text, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Alma 32:21") || !strings.Contains(text.String(), "showing 1 of 4") {
		t.Errorf("text output:\n%s", text.String())
	}

	var compact bytes.Buffer
	if err := WriteVerses(&compact, resp, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if compact.String() != "Alma 32:21\tAnd now as I said concerning faith\n" {
		t.Errorf("compact output = %q", compact.String())
	}

	var js bytes.Buffer
	if err := WriteVerses(&js, resp, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.VerseResponse
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Total != 4 || decoded.Hits[0].Verse.Number != 21 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteStatus(t *testing.T) {
	started := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	st := &models.StatusReport{
		IndexPath:   "/tmp/index.json",
		BuildID:     "b1",
		BuiltAt:     started,
		Works:       []models.WorkSummary{{Name: "Book of Mormon", Books: 15, TotalTokens: 270000, Vocabulary: 5600}},
		Books:       15,
		TotalTokens: 270000,
		Vocabulary:  5600,
		Verses:      6604,
		LatestBuild: &models.BuildRecord{ID: "b1", StartedAt: started, FinishedAt: started.Add(1500 * time.Millisecond), Verses: 6604},
		DiskBytes:   3 << 20,
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"b1", "Book of Mormon", "270000", "3.0 MiB", "took 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
