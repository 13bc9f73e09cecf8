package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"adminsum/internal/core"
)

const createdAtLayout = time.RFC3339Nano

// parseRow maps a sheet row (id, name, value, category, created_at) to a
// record. The Sheets API returns cells as strings or float64 depending on
// formatting, so both are accepted for value.
func parseRow(row []any) (core.Record, error) {
	id := cellString(cellAt(row, 0))
	if id == "" {
		return core.Record{}, fmt.Errorf("missing id")
	}

	value, err := cellFloat(cellAt(row, 2))
	if err != nil {
		return core.Record{}, fmt.Errorf("value: %w", err)
	}

	createdRaw := cellString(cellAt(row, 4))
	createdAt, err := time.Parse(createdAtLayout, createdRaw)
	if err != nil {
		return core.Record{}, fmt.Errorf("created_at %q: %w", createdRaw, err)
	}

	return core.Record{
		ID:        id,
		Name:      cellString(cellAt(row, 1)),
		Value:     value,
		Category:  cellString(cellAt(row, 3)),
		CreatedAt: createdAt,
	}, nil
}

func recordRow(r core.Record) []any {
	return []any{
		r.ID,
		r.Name,
		r.Value,
		r.Category,
		r.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func cellAt(row []any, idx int) any {
	if idx < len(row) {
		return row[idx]
	}
	return nil
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cellFloat(cell any) (float64, error) {
	switch v := cell.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported cell type %T", cell)
	}
}
