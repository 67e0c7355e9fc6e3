// Copyright Veracode, Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-fetch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for one fetch run.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ReportType is the analytics report type to request (default FINDINGS).
	ReportType string `json:"report_type" yaml:"report_type"`

	// PageSize is the page size requested from the API (default 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	// OutDir is the directory all output files are written into.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Filters are extra fields merged into the report submission body.
	// A status filter is never set: omitting it returns open, closed,
	// and mitigated findings together.
	Filters map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`

	// PostSubmitDelay is the pause between submitting a report and the
	// first poll (default 500ms).
	PostSubmitDelay time.Duration `json:"post_submit_delay" yaml:"post_submit_delay"`

	// PollTimeout caps how long one report may take to complete
	// (default 10m).
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout"`

	// PollInterval is the pause between status polls (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Stamp controls whether records gain source_report_id,
	// window_start, and window_end provenance fields.
	Stamp bool `json:"stamp" yaml:"stamp"`

	// Verify enables the per-window completeness audit.
	Verify bool `json:"verify" yaml:"verify"`

	// Strict turns any verification mismatch or duplicate into a
	// non-zero exit. Only meaningful with Verify.
	Strict bool `json:"strict" yaml:"strict"`

	// IDField optionally names a record field checked for duplicate
	// values during verification (e.g. "finding_id").
	IDField string `json:"id_field,omitempty" yaml:"id_field,omitempty"`

	// WriteCSV and WriteXLSX control the tabular outputs.
	WriteCSV  bool `json:"write_csv" yaml:"write_csv"`
	WriteXLSX bool `json:"write_xlsx" yaml:"write_xlsx"`
}
