// Copyright Veracode, Inc., 2026. All rights reserved.

package export

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

const (
	// defaultSheetRowLimit stays just under the XLSX hard row limit
	// (1,048,576), leaving room for the header row.
	defaultSheetRowLimit = 1_048_000

	// defaultChunkSize bounds the row buffer between stream flushes.
	defaultChunkSize = 10_000

	// widthSampleRows caps how many records contribute to column width
	// estimation; widthColumnCap limits width adjustment to the first
	// columns. All columns are still written.
	widthSampleRows = 200
	widthColumnCap  = 50
)

// errStopSampling ends the bounded width-sampling pass early.
var errStopSampling = errors.New("width sample complete")

// writeXLSX streams the JSONL file into one workbook. Sheets are named
// findings_01, findings_02, ... and roll over when the next row would
// exceed the per-sheet cap, so a chunk straddling the boundary splits
// across sheets. Each sheet repeats the header row.
func (w *Writer) writeXLSX(jsonlPath, xlsxPath string, headers []string) error {
	sheetLimit := w.SheetRowLimit
	if sheetLimit <= 0 {
		sheetLimit = defaultSheetRowLimit
	}
	chunkSize := w.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	widths, err := sampleWidths(jsonlPath, headers)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}

	var sw *excelize.StreamWriter
	sheetIdx := 0
	sheetRows := 0
	rowCursor := 0

	openSheet := func() error {
		sheetIdx++
		name := fmt.Sprintf("findings_%02d", sheetIdx)
		if sheetIdx == 1 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", name, err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("adding sheet %s: %w", name, err)
			}
			w.infof("sheet row limit reached, continuing on %s", name)
		}
		var err error
		sw, err = f.NewStreamWriter(name)
		if err != nil {
			return fmt.Errorf("opening stream writer for %s: %w", name, err)
		}
		// Widths must be set before any row on a stream writer.
		for i, width := range widths {
			if i >= widthColumnCap {
				break
			}
			if err := sw.SetColWidth(i+1, i+1, width); err != nil {
				return fmt.Errorf("setting column width: %w", err)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, 1)
		if err := sw.SetRow(cell, headerRow); err != nil {
			return fmt.Errorf("writing header row: %w", err)
		}
		sheetRows = 0
		rowCursor = 2
		return nil
	}

	if err := openSheet(); err != nil {
		return err
	}

	writeRow := func(row []any) error {
		if sheetRows >= sheetLimit {
			if err := sw.Flush(); err != nil {
				return fmt.Errorf("flushing sheet: %w", err)
			}
			if err := openSheet(); err != nil {
				return err
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowCursor)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
		rowCursor++
		sheetRows++
		return nil
	}

	chunk := make([][]any, 0, chunkSize)
	flushChunk := func() error {
		for _, row := range chunk {
			if err := writeRow(row); err != nil {
				return err
			}
		}
		chunk = chunk[:0]
		return nil
	}

	err = eachRecord(jsonlPath, func(rec types.Record) error {
		chunk = append(chunk, Row(Flatten(rec), headers))
		if len(chunk) >= chunkSize {
			return flushChunk()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flushChunk(); err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if err := f.SaveAs(xlsxPath); err != nil {
		return fmt.Errorf("saving %s: %w", xlsxPath, err)
	}
	return nil
}

// sampleWidths derives column widths from the header names and a
// bounded sample of cell lengths, clamped to [10, 82].
func sampleWidths(jsonlPath string, headers []string) ([]float64, error) {
	n := len(headers)
	if n > widthColumnCap {
		n = widthColumnCap
	}
	maxLens := make([]int, n)
	for i := 0; i < n; i++ {
		maxLens[i] = len(headers[i])
	}

	sampled := 0
	err := eachRecord(jsonlPath, func(rec types.Record) error {
		if sampled >= widthSampleRows {
			return errStopSampling
		}
		sampled++
		flat := Flatten(rec)
		for i := 0; i < n; i++ {
			if l := len(cellString(flat[headers[i]])); l > maxLens[i] {
				maxLens[i] = l
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopSampling) {
		return nil, err
	}

	widths := make([]float64, n)
	for i, l := range maxLens {
		if l > 80 {
			l = 80
		}
		width := float64(l + 2)
		if width < 10 {
			width = 10
		}
		widths[i] = width
	}
	return widths, nil
}
