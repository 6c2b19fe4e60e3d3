package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadResult holds the usable records of a dataset and the rows that were
// rejected at ingestion.
type LoadResult struct {
	Records []Record
	Skipped []*SchemaError
}

// LoadFile reads a dataset stored as a JSON array or as JSON Lines.
func LoadFile(path string, format Format) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	rows, err := decodeRows(data, strings.EqualFold(filepath.Ext(path), ".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", path, err)
	}
	return normalizeRows(rows, format)
}

func decodeRows(data []byte, jsonl bool) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !jsonl && trimmed[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var rows []map[string]any
		if err := dec.Decode(&rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var rows []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}

func normalizeRows(rows []map[string]any, format Format) (*LoadResult, error) {
	res := &LoadResult{Records: make([]Record, 0, len(rows))}
	for i, raw := range rows {
		rec, err := format.Normalize(i, raw)
		if err != nil {
			var se *SchemaError
			if !errors.As(err, &se) {
				return nil, err
			}
			log.Warn().Str("id", string(se.ID)).Int("row", se.Row).Str("field", se.Field).
				Msg("Skipping dataset record: " + se.Reason)
			res.Skipped = append(res.Skipped, se)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}
