// Package dataset reads question-answering datasets and validates each row at
// the ingestion boundary, so that later stages only ever see well-formed
// records.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxChoices is the number of answer letters (A..E) the evaluator can address.
const MaxChoices = 5

// ID identifies a record. Datasets use both numeric and string ids; both are
// kept as text.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Label is the gold answer index, or unknown.
type Label struct {
	Index int
	Known bool
}

// UnknownLabel marks records without a usable gold answer.
var UnknownLabel = Label{}

// KnownLabel returns a label pointing at choices[i].
func KnownLabel(i int) Label {
	return Label{Index: i, Known: true}
}

func (l Label) MarshalJSON() ([]byte, error) {
	if !l.Known {
		return []byte("null"), nil
	}
	return json.Marshal(l.Index)
}

// UnmarshalJSON accepts an index, null, or a negative sentinel meaning unknown.
func (l *Label) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*l = UnknownLabel
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return fmt.Errorf("label must be an integer index: %w", err)
	}
	if i < 0 {
		*l = UnknownLabel
		return nil
	}
	*l = KnownLabel(i)
	return nil
}

func (l Label) String() string {
	if !l.Known {
		return "unknown"
	}
	return fmt.Sprintf("%d", l.Index)
}

// Record is one validated dataset row.
type Record struct {
	ID       ID
	Question string
	Choices  []string
	Label    Label
}

// SchemaError reports a dataset row that cannot be used. The row is skipped;
// it never aborts a run.
type SchemaError struct {
	Row    int
	ID     ID
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (id %s): %s: %s", e.Row, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("record %d: %s: %s", e.Row, e.Field, e.Reason)
}

// Validate enforces the invariants every later stage relies on.
func (r Record) Validate(row int) error {
	if strings.TrimSpace(r.Question) == "" {
		return &SchemaError{Row: row, ID: r.ID, Field: "question", Reason: "empty"}
	}
	if len(r.Choices) == 0 {
		return &SchemaError{Row: row, ID: r.ID, Field: "choices", Reason: "empty"}
	}
	if len(r.Choices) > MaxChoices {
		return &SchemaError{Row: row, ID: r.ID, Field: "choices",
			Reason: fmt.Sprintf("%d choices, at most %d supported", len(r.Choices), MaxChoices)}
	}
	if r.Label.Known && (r.Label.Index < 0 || r.Label.Index >= len(r.Choices)) {
		return &SchemaError{Row: row, ID: r.ID, Field: "label",
			Reason: fmt.Sprintf("index %d out of range for %d choices", r.Label.Index, len(r.Choices))}
	}
	return nil
}

// Limit returns at most n records; n <= 0 means all of them.
func Limit(records []Record, n int) []Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[:n]
}
