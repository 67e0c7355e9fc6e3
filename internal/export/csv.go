// Copyright Veracode, Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// writeCSV streams the JSONL file into one CSV file: header row from
// the union, one row per record, never more than one record in memory.
func writeCSV(jsonlPath, csvPath string, headers []string) error {
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(headers))
	err = eachRecord(jsonlPath, func(rec types.Record) error {
		flat := Flatten(rec)
		for i, h := range headers {
			row[i] = cellString(flat[h])
		}
		return cw.Write(row)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", csvPath, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", csvPath, err)
	}
	return f.Close()
}

// cellString renders one flattened value for a CSV cell. Missing and
// null values export as empty; numbers keep their JSON representation.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
