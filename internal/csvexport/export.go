// Package csvexport renders records as the ledger's CSV download. The
// format is fixed by what downstream spreadsheets already import:
// Indonesian headers, quoted string fields, raw timestamps.
package csvexport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"adminsum/internal/core"
)

var headers = []string{"ID", "Nama", "Nilai", "Kategori", "Dibuat Pada"}

// DateRange bounds an export by creation date. Zero values leave that side
// open. Bounds are interpreted in the dates' own location: Start counts from
// local midnight, End through 23:59:59.999 of its day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) contains(t time.Time) bool {
	if !r.Start.IsZero() {
		start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
		if t.Before(start) {
			return false
		}
	}
	if !r.End.IsZero() {
		end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 23, 59, 59, 999000000, r.End.Location())
		if t.After(end) {
			return false
		}
	}
	return true
}

// Render produces the CSV body for the records inside the range. Only the
// string fields are quoted; id, value, and timestamp are emitted raw so
// re-imports parse them as typed columns.
func Render(records []core.Record, dateRange DateRange) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))

	for _, rec := range records {
		if !dateRange.contains(rec.CreatedAt) {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(rec.ID)
		b.WriteByte(',')
		b.WriteString(quote(rec.Name))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(rec.Value, 'f', -1, 64))
		b.WriteByte(',')
		if rec.Category != "" {
			b.WriteString(quote(rec.Category))
		}
		b.WriteByte(',')
		b.WriteString(rec.CreatedAt.Format(time.RFC3339Nano))
	}

	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename encodes the active category filter and the date range, matching
// the names users already have in their download history.
// ekspor_data_semua_2026-08-28.csv, ekspor_data_Gaji_awal_sampai_2026-08-01.csv
func Filename(category string, dateRange DateRange, now time.Time) string {
	part := "semua"
	if category != "" && category != "all" {
		part = filenameUnsafe.ReplaceAllString(category, "_")
	}

	var suffix string
	if dateRange.Start.IsZero() && dateRange.End.IsZero() {
		suffix = "_" + now.Format("2006-01-02")
	} else {
		start := "awal"
		if !dateRange.Start.IsZero() {
			start = dateRange.Start.Format("2006-01-02")
		}
		end := "sekarang"
		if !dateRange.End.IsZero() {
			end = dateRange.End.Format("2006-01-02")
		}
		suffix = fmt.Sprintf("_%s_sampai_%s", start, end)
	}

	return "ekspor_data_" + part + suffix + ".csv"
}
