// Copyright Veracode, Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_RecordAndGet(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	idField := "finding_id"
	dups := 0
	audit := types.AuditRecord{
		ReportID:              "r-1",
		PageIndexesSeen:       []int{0, 1, 2},
		PagesSeenCount:        3,
		TotalPagesReported:    intp(3),
		TotalElementsReported: intp(250),
		CollectedCount:        250,
		IDField:               &idField,
		DuplicateIDCount:      &dups,
		StrictOK:              true,
	}

	require.NoError(t, l.Record(ctx, audit))

	got, err := l.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, audit, got)
}

func TestLedger_NullableFieldsSurvive(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	audit := types.AuditRecord{
		ReportID:        "r-2",
		PageIndexesSeen: []int{0},
		PagesSeenCount:  1,
		CollectedCount:  4,
		StrictOK:        true,
	}
	require.NoError(t, l.Record(ctx, audit))

	got, err := l.Get(ctx, "r-2")
	require.NoError(t, err)
	assert.Nil(t, got.TotalPagesReported)
	assert.Nil(t, got.TotalElementsReported)
	assert.Nil(t, got.IDField)
	assert.Nil(t, got.DuplicateIDCount)
}

func TestLedger_ReplaceOnSameReport(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	first := types.AuditRecord{ReportID: "r-3", PageIndexesSeen: []int{0}, PagesSeenCount: 1, CollectedCount: 1, StrictOK: false}
	require.NoError(t, l.Record(ctx, first))

	second := first
	second.CollectedCount = 8
	second.StrictOK = true
	require.NoError(t, l.Record(ctx, second))

	got, err := l.Get(ctx, "r-3")
	require.NoError(t, err)
	assert.Equal(t, 8, got.CollectedCount)
	assert.True(t, got.StrictOK)
}

func TestLedger_GetUnknownReport(t *testing.T) {
	l := testLedger(t)

	_, err := l.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
