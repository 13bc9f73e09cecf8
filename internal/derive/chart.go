package derive

import "adminsum/internal/core"

// DefaultChartLimit bounds how many records the bar chart shows.
const DefaultChartLimit = 15

const maxLabelRunes = 10

// Point is one chart-ready bar.
type Point struct {
	Label string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartPoints takes the head of an already newest-first collection and maps
// it to chart points, reversed so the chart reads oldest to newest. The input
// is never mutated or re-sorted.
func ChartPoints(records []core.Record, limit int) []Point {
	if limit <= 0 {
		limit = DefaultChartLimit
	}
	n := len(records)
	if n > limit {
		n = limit
	}
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		r := records[i]
		out[n-1-i] = Point{Label: truncateLabel(r.Name), Value: r.Value}
	}
	return out
}

func truncateLabel(name string) string {
	runes := []rune(name)
	if len(runes) <= maxLabelRunes {
		return name
	}
	return string(runes[:maxLabelRunes]) + "…"
}
