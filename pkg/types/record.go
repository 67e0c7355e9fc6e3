// Copyright Veracode, Inc., 2026. All rights reserved.

// Package types holds the value types shared across pipeline stages.
package types

// Record is one finding as returned by the Reporting API: an open-ended
// JSON object with arbitrarily nested mappings, lists, and scalars.
type Record map[string]any

// Stamp returns a copy of r augmented with provenance fields naming the
// report and window the record came from. The receiver is not modified.
func (r Record) Stamp(reportID, windowStart, windowEnd string) Record {
	stamped := make(Record, len(r)+3)
	for k, v := range r {
		stamped[k] = v
	}
	stamped["source_report_id"] = reportID
	stamped["window_start"] = windowStart
	stamped["window_end"] = windowEnd
	return stamped
}

// PageMeta is pagination metadata normalized from the several shapes the
// server may use. Nil fields mean the server did not report that value.
type PageMeta struct {
	Number        *int `json:"number"`
	TotalPages    *int `json:"total_pages"`
	Size          *int `json:"size"`
	TotalElements *int `json:"total_elements"`
}

// PageMarker is the synthetic page-boundary event emitted before each
// page's records during traversal.
type PageMarker struct {
	PageNo int      `json:"page_no"`
	Count  int      `json:"count"`
	Meta   PageMeta `json:"meta"`
}

// AuditRecord is the per-window verification summary persisted after
// traversal. Field names match the audit JSON documents on disk.
type AuditRecord struct {
	ReportID              string  `json:"report_id"`
	PageIndexesSeen       []int   `json:"page_indexes_seen"`
	PagesSeenCount        int     `json:"pages_seen_count"`
	TotalPagesReported    *int    `json:"total_pages_reported"`
	TotalElementsReported *int    `json:"total_elements_reported"`
	CollectedCount        int     `json:"collected_count_after_verify"`
	IDField               *string `json:"id_field"`
	DuplicateIDCount      *int    `json:"duplicate_id_count"`
	StrictOK              bool    `json:"strict_ok"`
}

// Mismatch reports whether the observed page count disagrees with the
// server-reported total, when the server reported one at all.
func (a AuditRecord) Mismatch() bool {
	return a.TotalPagesReported != nil && a.PagesSeenCount != *a.TotalPagesReported
}
