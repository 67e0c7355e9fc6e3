// Copyright Veracode, Inc., 2026. All rights reserved.

// Package report drives the lifecycle of one analytics report: submit a
// request for a time window, poll until the server marks it complete,
// then drain its pages.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/transport"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// reportPath is the analytics report resource under the API base URL.
const reportPath = "/appsec/v1/analytics/report"

// Service runs report operations through the retrying transport.
type Service struct {
	Client  *transport.Client
	Printer *console.Printer
}

// Submit creates one report request covering the window. The window
// bounds expand to full-day timestamps so the range is inclusive at day
// granularity. Caller filters merge into the body, except a "status"
// filter: omitting status is what makes the API return open, closed,
// and mitigated findings together. Returns the new report id.
func (s *Service) Submit(ctx context.Context, reportType string, w types.TimeWindow, filters map[string]any) (string, error) {
	body := map[string]any{
		"report_type":             reportType,
		"last_updated_start_date": w.StartDate() + " 00:00:00",
		"last_updated_end_date":   w.EndDate() + " 23:59:59",
	}
	for k, v := range filters {
		if k == "status" {
			s.Printer.Warnf("  ignoring \"status\" filter: omitting it returns open+closed+mitigated findings")
			continue
		}
		body[k] = v
	}

	resp, err := s.Client.DoJSON(ctx, "POST", reportPath, body)
	if err != nil {
		return "", err
	}

	rid := extractReportID(resp)
	if rid == "" {
		return "", fmt.Errorf("report submission returned no report id:\n%s", prettyExcerpt(resp))
	}
	return rid, nil
}

// PollUntilComplete fetches report metadata at a fixed interval until
// the report completes, printing a status line only when the status
// changes. Completion is signalled by either a COMPLETED status or a
// date_report_completed timestamp; either alone is sufficient. Exceeding
// timeout is fatal.
func (s *Service) PollUntilComplete(ctx context.Context, rid string, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	last := ""
	for time.Now().Before(deadline) {
		meta, err := s.Client.DoJSON(ctx, "GET", reportPath+"/"+rid, nil)
		if err != nil {
			return err
		}

		st := strings.ToUpper(currentStatus(meta))
		if st == "" {
			st = "UNKNOWN"
		}
		if st != last {
			if icon := s.Printer.StatusIcon(st); icon != "" {
				s.Printer.Infof("  %s status: %s", icon, st)
			} else {
				s.Printer.Infof("  status: %s", st)
			}
			last = st
		}

		if isCompleted(meta) {
			return nil
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
	return fmt.Errorf("report %s not ready within %s", rid, timeout)
}

// extractReportID reads the report id from the top level or from the
// "_embedded" object. Numeric ids stringify.
func extractReportID(payload map[string]any) string {
	if id := stringify(payload["id"]); id != "" {
		return id
	}
	if emb, ok := payload["_embedded"].(map[string]any); ok {
		return stringify(emb["id"])
	}
	return ""
}

// currentStatus reads the status string from the top level or from the
// "_embedded" object.
func currentStatus(payload map[string]any) string {
	if st := stringify(payload["status"]); st != "" {
		return st
	}
	if emb, ok := payload["_embedded"].(map[string]any); ok {
		return stringify(emb["status"])
	}
	return ""
}

// isCompleted ORs the two independent completion signals: a COMPLETED
// status string, or a present date_report_completed timestamp.
func isCompleted(payload map[string]any) bool {
	if strings.EqualFold(currentStatus(payload), "COMPLETED") {
		return true
	}
	if stringify(payload["date_report_completed"]) != "" {
		return true
	}
	if emb, ok := payload["_embedded"].(map[string]any); ok {
		return stringify(emb["date_report_completed"]) != ""
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// prettyExcerpt renders a payload for error messages, truncated.
func prettyExcerpt(payload map[string]any) string {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	if len(data) > 2000 {
		data = data[:2000]
	}
	return string(data)
}

// sleep blocks for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
