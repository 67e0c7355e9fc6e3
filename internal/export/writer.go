// Copyright Veracode, Inc., 2026. All rights reserved.

// Package export persists the collected record stream in four formats.
// The JSONL file is written first and is the single source of truth;
// the JSON array, CSV, and XLSX outputs are streaming passes over it,
// never a second in-memory materialization.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// Writer produces one run's output files under OutDir using a shared
// timestamped base name.
type Writer struct {
	OutDir   string
	BaseName string

	// CSV and XLSX toggle the tabular outputs.
	CSV  bool
	XLSX bool

	// SheetRowLimit caps data rows per workbook sheet, just under the
	// format's hard limit. ChunkSize bounds the row buffer between
	// flushes. Zero values take the defaults.
	SheetRowLimit int
	ChunkSize     int

	Printer *console.Printer
}

// Paths names the files one run produced. Skipped formats are empty.
type Paths struct {
	JSONL string
	JSON  string
	CSV   string
	XLSX  string
}

// NewWriter returns a Writer with a UTC-timestamped base name.
func NewWriter(outDir string, csv, xlsx bool, p *console.Printer) *Writer {
	ts := time.Now().UTC().Format("20060102_150405")
	return &Writer{
		OutDir:   outDir,
		BaseName: "report_all_" + ts,
		CSV:      csv,
		XLSX:     xlsx,
		Printer:  p,
	}
}

// WriteAll persists the complete ordered record stream. Page-boundary
// markers never reach the writer; the caller accumulates records only.
func (w *Writer) WriteAll(records []types.Record) (Paths, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating output directory: %w", err)
	}

	var paths Paths
	paths.JSONL = w.path("jsonl")
	if err := writeJSONL(records, paths.JSONL); err != nil {
		return Paths{}, err
	}

	paths.JSON = w.path("json")
	if err := writeJSONArray(paths.JSONL, paths.JSON); err != nil {
		return Paths{}, err
	}

	headers, err := UnionHeaders(paths.JSONL)
	if err != nil {
		return Paths{}, err
	}

	if w.CSV {
		paths.CSV = w.path("csv")
		if err := writeCSV(paths.JSONL, paths.CSV, headers); err != nil {
			return Paths{}, err
		}
	}
	if w.XLSX {
		paths.XLSX = w.path("xlsx")
		if err := w.writeXLSX(paths.JSONL, paths.XLSX, headers); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func (w *Writer) path(ext string) string {
	return filepath.Join(w.OutDir, w.BaseName+"."+ext)
}

func (w *Writer) infof(format string, args ...any) {
	if w.Printer != nil {
		w.Printer.Infof(format, args...)
	}
}

// writeJSONL writes one compact JSON object per record, in arrival
// order. This file is the authoritative stream every other format
// derives from.
func writeJSONL(records []types.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// writeJSONArray streams the JSONL file into one serialized array,
// holding a single record in memory at a time. Raw lines copy through
// untouched so the array holds byte-identical records.
func writeJSONArray(jsonlPath, jsonPath string) error {
	in, err := os.Open(jsonlPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", jsonlPath, err)
	}
	defer in.Close()

	out, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", jsonPath, err)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if _, err := bw.WriteString("[\n"); err != nil {
		return err
	}

	dec := json.NewDecoder(in)
	first := true
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("reading %s: %w", jsonlPath, err)
		}
		if !first {
			if _, err := bw.WriteString(",\n"); err != nil {
				return err
			}
		}
		first = false
		if _, err := bw.WriteString("  "); err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString("\n]\n"); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", jsonPath, err)
	}
	return out.Close()
}
