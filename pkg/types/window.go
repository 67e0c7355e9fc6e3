// Copyright Veracode, Inc., 2026. All rights reserved.

package types

import "time"

// DateFormat is the day-granularity format used for window bounds and
// CLI date arguments.
const DateFormat = "2006-01-02"

// TimeWindow is one inclusive date sub-range of the requested span,
// bounded by the service's 180-day query limit. Windows are immutable
// once created by the segmenter.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the window start as YYYY-MM-DD.
func (w TimeWindow) StartDate() string { return w.Start.Format(DateFormat) }

// EndDate returns the window end as YYYY-MM-DD.
func (w TimeWindow) EndDate() string { return w.End.Format(DateFormat) }

// Days returns the inclusive span of the window in days.
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
