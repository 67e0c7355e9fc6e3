// Copyright Veracode, Inc., 2026. All rights reserved.

// Package verify reconciles what a traversal actually saw against what
// the server reported, producing one audit record per window.
package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// Run reconciles one window's traversal. It merges all per-page
// metadata fragments keeping the first non-null value per field (a
// later conflicting value is warned about, never adopted), compares
// observed pages against the reported total when one exists, and counts
// duplicate identifier values when idField names one.
func Run(rid string, markers []types.PageMarker, records []types.Record, idField string, p *console.Printer) types.AuditRecord {
	seen := make(map[int]struct{}, len(markers))
	for _, m := range markers {
		seen[m.PageNo] = struct{}{}
	}
	indexes := make([]int, 0, len(seen))
	for idx := range seen {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	merged := mergeMeta(markers, p)

	audit := types.AuditRecord{
		ReportID:              rid,
		PageIndexesSeen:       indexes,
		PagesSeenCount:        len(indexes),
		TotalPagesReported:    merged.TotalPages,
		TotalElementsReported: merged.TotalElements,
		CollectedCount:        len(records),
		StrictOK:              true,
	}

	if merged.TotalPages != nil {
		ok := audit.PagesSeenCount == *merged.TotalPages
		verdict := "OK"
		if !ok {
			verdict = "MISMATCH"
			audit.StrictOK = false
		}
		p.Infof("      pages: seen=%d reported=%d => %s", audit.PagesSeenCount, *merged.TotalPages, verdict)
	} else {
		p.Infof("      pages: seen=%d reported=? (not provided)", audit.PagesSeenCount)
	}

	if idField != "" {
		audit.IDField = &idField
		dups := countDuplicates(records, idField)
		audit.DuplicateIDCount = &dups
		if dups > 0 {
			audit.StrictOK = false
			p.Warnf("      %d duplicate %s value(s) within report %s", dups, idField, rid)
		}
	}

	return audit
}

// mergeMeta folds per-page metadata into one reconciled view. The first
// non-null value per field wins; a later page reporting a different
// non-null value is flagged, since that means the server's own totals
// were inconsistent across pages.
func mergeMeta(markers []types.PageMarker, p *console.Printer) types.PageMeta {
	var merged types.PageMeta
	keep := func(dst **int, src *int, field string, pageNo int) {
		if src == nil {
			return
		}
		if *dst == nil {
			*dst = src
			return
		}
		if **dst != *src {
			p.Warnf("      conflicting %s across pages: keeping %d, page %d reported %d", field, **dst, pageNo, *src)
		}
	}
	for _, m := range markers {
		keep(&merged.TotalPages, m.Meta.TotalPages, "total_pages", m.PageNo)
		keep(&merged.TotalElements, m.Meta.TotalElements, "total_elements", m.PageNo)
		keep(&merged.Size, m.Meta.Size, "size", m.PageNo)
	}
	return merged
}

// countDuplicates counts records whose idField value was already seen
// earlier in the same window. Records missing the field are ignored.
func countDuplicates(records []types.Record, idField string) int {
	seen := make(map[string]struct{}, len(records))
	dups := 0
	for _, r := range records {
		v, ok := r[idField]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprintf("%v", v)
		if _, dup := seen[key]; dup {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// WriteAudit persists one audit record as audit_<report_id>.json in dir.
func WriteAudit(dir string, a types.AuditRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating audit directory: %w", err)
	}
	path := filepath.Join(dir, "audit_"+a.ReportID+".json")
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling audit record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing audit record: %w", err)
	}
	return path, nil
}
