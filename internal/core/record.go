package core

import (
	"math"
	"strings"
	"time"
)

type (
	// Record is one ledger entry. The sign of Value encodes direction:
	// positive for income, negative for expense. Category may be empty;
	// the placeholder label is substituted only at derivation time.
	Record struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Value     float64   `json:"value"`
		Category  string    `json:"category,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Draft is a record before id and timestamp assignment.
	Draft struct {
		Name     string  `json:"name"`
		Value    float64 `json:"value"`
		Category string  `json:"category,omitempty"`
	}
)

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return &ValidationError{Field: "value", Reason: "must be a finite number"}
	}
	return nil
}

// NewRecord materializes a draft with the given identity and timestamp.
func NewRecord(d Draft, id string, createdAt time.Time) Record {
	return Record{
		ID:        id,
		Name:      d.Name,
		Value:     d.Value,
		Category:  d.Category,
		CreatedAt: createdAt,
	}
}
