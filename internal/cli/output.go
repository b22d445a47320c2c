// Package cli renders frequency tables, verse listings and status reports
// for the kazoeru command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is a human-readable table (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per row, without headers.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// BarWidth is the widest bar drawn in text output.
const BarWidth = 40

// ParseFormat accepts text, compact or json (case-insensitive).
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFrequency writes a ranked frequency response to w in the given format.
// Text output draws a bar per row scaled to the highest rate.
func WriteFrequency(w io.Writer, resp *models.FrequencyResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, r := range resp.Rows {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", r.Scope, r.RawCount, r.TotalWords, r.RatePer10k); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeFrequencyText(w, resp)
	}
}

func writeFrequencyText(w io.Writer, resp *models.FrequencyResponse) error {
	fmt.Fprintf(w, "\n%q (%s) by %s: %d occurrences in %dms\n\n",
		resp.Term, resp.Normalized, granularityLabel(resp.Granularity), resp.TotalCount, resp.QueryTime)

	maxRate := 0.0
	for _, r := range resp.Rows {
		if r.Rate > maxRate {
			maxRate = r.Rate
		}
	}
	showWork := resp.Granularity == models.GranularityBook

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if showWork {
		fmt.Fprintln(tw, "#\tBOOK\tWORK\tCOUNT\tWORDS\tPER 10K\t")
	} else {
		fmt.Fprintln(tw, "#\tSCOPE\tCOUNT\tWORDS\tPER 10K\t")
	}
	for _, r := range resp.Rows {
		bar := strings.Repeat("█", utils.Scale(r.Rate, maxRate, BarWidth))
		if showWork {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.2f\t%s\n", r.Rank, r.Scope, r.Work, r.RawCount, r.TotalWords, r.RatePer10k, bar)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\t%s\n", r.Rank, r.Scope, r.RawCount, r.TotalWords, r.RatePer10k, bar)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func granularityLabel(g models.Granularity) string {
	switch g {
	case models.GranularityWork:
		return "standard work"
	case models.GranularityBook:
		return "book"
	}
	return "corpus"
}

// WriteVerses writes concordance hits to w in the given format.
func WriteVerses(w io.Writer, resp *models.VerseResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, h := range resp.Hits {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", h.Reference, h.Verse.Text); err != nil {
				return err
			}
		}
		return nil
	}
	fmt.Fprintf(w, "\n%q (%s): %d verses in %dms\n\n", resp.Term, resp.Normalized, resp.Total, resp.QueryTime)
	for _, h := range resp.Hits {
		fmt.Fprintf(w, "%s\n    %s\n", h.Reference, utils.Truncate(h.Verse.Text, 200))
	}
	if uint64(len(resp.Hits)) < resp.Total {
		fmt.Fprintf(w, "\n(showing %d of %d)\n", len(resp.Hits), resp.Total)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteStatus writes an index status report to w in the given format.
func WriteStatus(w io.Writer, st *models.StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	if format == OutputCompact {
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", st.BuildID, st.Books, st.TotalTokens, st.Vocabulary, st.DiskBytes)
		return err
	}

	fmt.Fprintf(w, "Index:       %s\n", st.IndexPath)
	if st.BuildID != "" {
		fmt.Fprintf(w, "Build:       %s (%s)\n", st.BuildID, st.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "Books:       %d\n", st.Books)
	fmt.Fprintf(w, "Words:       %d\n", st.TotalTokens)
	fmt.Fprintf(w, "Vocabulary:  %d\n", st.Vocabulary)
	fmt.Fprintf(w, "Verses:      %d\n", st.Verses)
	if b := st.LatestBuild; b != nil {
		fmt.Fprintf(w, "Last build:  %s, %d verses, %d skipped, took %s\n",
			b.FinishedAt.Format("2006-01-02 15:04:05"), b.Verses, b.Skipped, b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Disk:        %s\n\n", FormatBytes(st.DiskBytes))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORK\tBOOKS\tWORDS\tVOCABULARY\t")
	for _, ws := range st.Works {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n", ws.Name, ws.Books, ws.TotalTokens, ws.Vocabulary)
	}
	return tw.Flush()
}

// FormatBytes renders n with a binary unit, e.g. "12.3 MiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
