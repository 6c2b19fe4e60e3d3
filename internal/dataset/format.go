package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Format names a dataset row layout.
type Format string

const (
	// FormatJCommonsenseQA rows carry q_id, question, choice0..choice4, label.
	FormatJCommonsenseQA Format = "jcommonsenseqa"
	// FormatBarExam rows carry structured legal question fields, choices and answer.
	FormatBarExam Format = "barexam"
)

// ParseFormat validates a format name from configuration.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJCommonsenseQA, FormatBarExam:
		return f, nil
	default:
		return "", fmt.Errorf("unknown dataset format %q", s)
	}
}

// Normalize turns a raw row into a validated Record. row is the 0-based
// position used in error messages and as last-resort identifier.
func (f Format) Normalize(row int, raw map[string]any) (Record, error) {
	var rec Record
	var labelRaw any

	switch f {
	case FormatJCommonsenseQA:
		rec.ID = ID(str(raw, "q_id"))
		rec.Question = strings.TrimSpace(str(raw, "question"))
		for i := 0; i < MaxChoices; i++ {
			key := fmt.Sprintf("choice%d", i)
			if _, ok := raw[key]; !ok {
				return Record{}, &SchemaError{Row: row, ID: rec.ID, Field: key, Reason: "missing"}
			}
			rec.Choices = append(rec.Choices, str(raw, key))
		}
		labelRaw = raw["label"]

	case FormatBarExam:
		rec.ID = ID(str(raw, "id"))
		rec.Question = FormatBarExamQuestion(raw)
		choices, err := stringList(raw["choices"])
		if err != nil {
			return Record{}, &SchemaError{Row: row, ID: rec.ID, Field: "choices", Reason: err.Error()}
		}
		rec.Choices = choices
		labelRaw = raw["answer"]

	default:
		return Record{}, fmt.Errorf("unknown dataset format %q", f)
	}

	if rec.ID == "" && rec.Question != "" {
		rec.ID = ID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(rec.Question)).String())
	}

	label, err := parseLabel(labelRaw, rec.Choices)
	if err != nil {
		return Record{}, &SchemaError{Row: row, ID: rec.ID, Field: "label", Reason: err.Error()}
	}
	rec.Label = label

	if err := rec.Validate(row); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func str(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// stringList accepts a JSON array or, as stored in SQLite, its text encoding.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("non-text choice %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	case []byte:
		return stringList(string(t))
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, fmt.Errorf("choices text is not a JSON string array: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported choices type %T", v)
	}
}

func parseLabel(v any, choices []string) (Label, error) {
	switch t := v.(type) {
	case nil:
		return UnknownLabel, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return UnknownLabel, fmt.Errorf("non-integer label %s", t)
		}
		return indexLabel(int(i)), nil
	case float64:
		if t != float64(int(t)) {
			return UnknownLabel, fmt.Errorf("non-integer label %v", t)
		}
		return indexLabel(int(t)), nil
	case int64:
		return indexLabel(int(t)), nil
	case int:
		return indexLabel(t), nil
	case []byte:
		return parseLabel(string(t), choices)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return UnknownLabel, nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return indexLabel(i), nil
		}
		if len(s) == 1 {
			if i := strings.Index("ABCDE", strings.ToUpper(s)); i >= 0 {
				return KnownLabel(i), nil
			}
		}
		for i, c := range choices {
			if c == s {
				return KnownLabel(i), nil
			}
		}
		return UnknownLabel, fmt.Errorf("label %q matches no index, letter or choice", s)
	default:
		return UnknownLabel, fmt.Errorf("unsupported label type %T", v)
	}
}

func indexLabel(i int) Label {
	if i < 0 {
		return UnknownLabel
	}
	return KnownLabel(i)
}
