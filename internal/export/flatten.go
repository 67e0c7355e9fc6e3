// Copyright Veracode, Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// Flatten merges nested mappings into their parent under dot-joined
// keys. List values serialize as their literal JSON text rather than
// expanding into columns; scalars pass through unchanged.
func Flatten(r types.Record) map[string]any {
	out := make(map[string]any, len(r))
	flattenInto(out, "", r)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(out, key, t)
		case []any:
			text, err := json.Marshal(t)
			if err != nil {
				out[key] = fmt.Sprintf("%v", t)
				continue
			}
			out[key] = string(text)
		default:
			out[key] = v
		}
	}
}

// UnionHeaders makes one streaming pass over the JSONL file and returns
// the sorted union of all flattened keys. The union is fixed before any
// tabular output begins; CSV and XLSX share it verbatim.
func UnionHeaders(jsonlPath string) ([]string, error) {
	f, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", jsonlPath, err)
	}
	defer f.Close()

	keys := make(map[string]struct{})
	dec := json.NewDecoder(f)
	for {
		var rec types.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading %s: %w", jsonlPath, err)
		}
		for k := range Flatten(rec) {
			keys[k] = struct{}{}
		}
	}

	headers := make([]string, 0, len(keys))
	for k := range keys {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers, nil
}

// Row projects a flattened record onto the header union, in column
// order. Missing keys yield nil cells.
func Row(flat map[string]any, headers []string) []any {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = flat[h]
	}
	return row
}

// eachRecord streams the JSONL file, invoking fn per record.
func eachRecord(jsonlPath string, fn func(types.Record) error) error {
	f, err := os.Open(jsonlPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", jsonlPath, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	for {
		var rec types.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading %s: %w", jsonlPath, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
