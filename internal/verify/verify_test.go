// Copyright Veracode, Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

func intp(v int) *int { return &v }

func bufPrinter() (*console.Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &console.Printer{Icons: false, Out: &buf, Err: &buf}, &buf
}

func marker(pageNo int, meta types.PageMeta) types.PageMarker {
	return types.PageMarker{PageNo: pageNo, Count: 1, Meta: meta}
}

func TestRun_MatchingTotals(t *testing.T) {
	p, _ := bufPrinter()
	markers := []types.PageMarker{
		marker(0, types.PageMeta{TotalPages: intp(3), TotalElements: intp(5)}),
		marker(1, types.PageMeta{TotalPages: intp(3)}),
		marker(2, types.PageMeta{TotalPages: intp(3)}),
	}
	records := []types.Record{{"a": 1}, {"a": 2}, {"a": 3}, {"a": 4}, {"a": 5}}

	audit := Run("r-1", markers, records, "", p)

	assert.Equal(t, "r-1", audit.ReportID)
	assert.Equal(t, []int{0, 1, 2}, audit.PageIndexesSeen)
	assert.Equal(t, 3, audit.PagesSeenCount)
	require.NotNil(t, audit.TotalPagesReported)
	assert.Equal(t, 3, *audit.TotalPagesReported)
	require.NotNil(t, audit.TotalElementsReported)
	assert.Equal(t, 5, *audit.TotalElementsReported)
	assert.Equal(t, 5, audit.CollectedCount)
	assert.True(t, audit.StrictOK)
	assert.False(t, audit.Mismatch())
	assert.Nil(t, audit.IDField)
	assert.Nil(t, audit.DuplicateIDCount)
}

func TestRun_PageCountMismatch(t *testing.T) {
	p, buf := bufPrinter()
	markers := []types.PageMarker{
		marker(0, types.PageMeta{TotalPages: intp(3)}),
		marker(1, types.PageMeta{TotalPages: intp(3)}),
	}

	audit := Run("r-2", markers, nil, "", p)

	assert.Equal(t, 2, audit.PagesSeenCount)
	assert.True(t, audit.Mismatch())
	assert.False(t, audit.StrictOK)
	assert.Contains(t, buf.String(), "MISMATCH")
}

func TestRun_NoReportedTotalIsNotAMismatch(t *testing.T) {
	p, buf := bufPrinter()
	markers := []types.PageMarker{marker(0, types.PageMeta{})}

	audit := Run("r-3", markers, nil, "", p)

	assert.Nil(t, audit.TotalPagesReported)
	assert.False(t, audit.Mismatch())
	assert.True(t, audit.StrictOK)
	assert.Contains(t, buf.String(), "reported=?")
}

func TestRun_ConflictingTotalsKeepFirstAndWarn(t *testing.T) {
	p, buf := bufPrinter()
	markers := []types.PageMarker{
		marker(0, types.PageMeta{TotalPages: intp(2)}),
		marker(1, types.PageMeta{TotalPages: intp(4)}),
	}

	audit := Run("r-4", markers, nil, "", p)

	require.NotNil(t, audit.TotalPagesReported)
	assert.Equal(t, 2, *audit.TotalPagesReported)
	assert.Contains(t, buf.String(), "conflicting total_pages")
}

func TestRun_DuplicateIDCounting(t *testing.T) {
	p, _ := bufPrinter()
	markers := []types.PageMarker{marker(0, types.PageMeta{TotalPages: intp(1)})}
	records := []types.Record{
		{"finding_id": "a"},
		{"finding_id": "b"},
		{"finding_id": "a"},
		{"finding_id": "a"},
		{"other": "no id field"},
	}

	audit := Run("r-5", markers, records, "finding_id", p)

	require.NotNil(t, audit.IDField)
	assert.Equal(t, "finding_id", *audit.IDField)
	require.NotNil(t, audit.DuplicateIDCount)
	assert.Equal(t, 2, *audit.DuplicateIDCount)
	assert.False(t, audit.StrictOK)
}

func TestRun_UniqueIDsKeepStrictOK(t *testing.T) {
	p, _ := bufPrinter()
	markers := []types.PageMarker{marker(0, types.PageMeta{TotalPages: intp(1)})}
	records := []types.Record{{"finding_id": "a"}, {"finding_id": "b"}}

	audit := Run("r-6", markers, records, "finding_id", p)

	require.NotNil(t, audit.DuplicateIDCount)
	assert.Equal(t, 0, *audit.DuplicateIDCount)
	assert.True(t, audit.StrictOK)
}

func TestWriteAudit_RoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	audit := types.AuditRecord{
		ReportID:           "r-7",
		PageIndexesSeen:    []int{0, 1},
		PagesSeenCount:     2,
		TotalPagesReported: intp(2),
		CollectedCount:     9,
		StrictOK:           true,
	}

	path, err := WriteAudit(dir, audit)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audit_r-7.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got types.AuditRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, audit, got)
}
