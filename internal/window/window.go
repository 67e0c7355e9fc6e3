// Copyright Veracode, Inc., 2026. All rights reserved.

// Package window splits a date range into sub-ranges the Reporting API
// will accept. The service caps query spans at 180 days, so a
// multi-year range becomes an ordered run of contiguous windows.
package window

import (
	"fmt"
	"time"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// MaxDays is the service-side limit on one report's query span.
const MaxDays = 180

// Parse validates a pair of YYYY-MM-DD date arguments.
func Parse(from, to string) (start, end time.Time, err error) {
	start, err = time.Parse(types.DateFormat, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing --from %q: %w", from, err)
	}
	end, err = time.Parse(types.DateFormat, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing --to %q: %w", to, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s must be >= --from %s", to, from)
	}
	return start, end, nil
}

// Split covers the inclusive range [start, end] with contiguous,
// non-overlapping windows of at most MaxDays each. Every window ends at
// min(start+179 days, end); the next begins the following day.
func Split(start, end time.Time) []types.TimeWindow {
	var windows []types.TimeWindow
	cur := start
	for !cur.After(end) {
		next := cur.AddDate(0, 0, MaxDays-1)
		if next.After(end) {
			next = end
		}
		windows = append(windows, types.TimeWindow{Start: cur, End: next})
		cur = next.AddDate(0, 0, 1)
	}
	return windows
}
