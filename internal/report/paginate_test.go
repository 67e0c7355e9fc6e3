// Copyright Veracode, Inc., 2026. All rights reserved.

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// collectStream drains a report via Stream, gathering markers and records.
func collectStream(t *testing.T, svc *Service, rid string, size int) ([]types.PageMarker, []types.Record) {
	t.Helper()
	var markers []types.PageMarker
	var records []types.Record
	err := svc.Stream(context.Background(), rid, size,
		func(m types.PageMarker) error {
			markers = append(markers, m)
			return nil
		},
		func(r types.Record) error {
			records = append(records, r)
			return nil
		})
	require.NoError(t, err)
	return markers, records
}

func itemsPage(n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"finding_id": fmt.Sprintf("f-%d", i)}
	}
	return items
}

func TestStream_LengthBasedFallback(t *testing.T) {
	// No links, no metadata: a full page means "try the next index",
	// a short page is the last one.
	pageSizes := []int{3, 3, 2}
	var pagesRequested []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pagesRequested = append(pagesRequested, page)
		var idx int
		fmt.Sscanf(page, "%d", &idx)
		require.Less(t, idx, len(pageSizes))
		json.NewEncoder(w).Encode(map[string]any{"content": itemsPage(pageSizes[idx])})
	}))
	defer ts.Close()

	markers, records := collectStream(t, newService(ts), "r-1", 3)

	require.Len(t, markers, 3)
	for i, m := range markers {
		assert.Equal(t, i, m.PageNo)
		assert.Equal(t, pageSizes[i], m.Count)
	}
	assert.Len(t, records, 8)
	// Pages visited in strictly increasing order, no repeats.
	assert.Equal(t, []string{"0", "1", "2"}, pagesRequested)
}

func TestStream_EmptyFirstPageTerminates(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer ts.Close()

	markers, records := collectStream(t, newService(ts), "r-1", 100)
	require.Len(t, markers, 1)
	assert.Equal(t, 0, markers[0].Count)
	assert.Empty(t, records)
	assert.Equal(t, 1, calls)
}

func TestStream_MetadataAdvanceStopsAtTotalPages(t *testing.T) {
	// Every page is full-size; only the metadata says when to stop.
	const totalPages = 3
	calls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var idx int
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &idx)
		json.NewEncoder(w).Encode(map[string]any{
			"content": itemsPage(2),
			"page":    map[string]any{"number": idx, "totalPages": totalPages},
		})
	}))
	defer ts.Close()

	markers, records := collectStream(t, newService(ts), "r-1", 2)

	require.Len(t, markers, totalPages)
	for i, m := range markers {
		assert.Equal(t, i, m.PageNo)
	}
	assert.Len(t, records, 6)
	assert.Equal(t, totalPages, calls)
}

func TestStream_HALNextLinkInjectsSize(t *testing.T) {
	var secondPageQuery string

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "0":
			// The next link omits the size parameter on purpose.
			json.NewEncoder(w).Encode(map[string]any{
				"content": itemsPage(5),
				"_links": map[string]any{
					"next": map[string]any{"href": ts.URL + "/appsec/v1/analytics/report/r-1?page=1"},
				},
			})
		case "1":
			secondPageQuery = r.URL.RawQuery
			json.NewEncoder(w).Encode(map[string]any{"content": itemsPage(1)})
		default:
			t.Errorf("unexpected page request: %s", r.URL.String())
		}
	}))
	defer ts.Close()

	markers, records := collectStream(t, newService(ts), "r-1", 5)

	require.Len(t, markers, 2)
	assert.Equal(t, []int{0, 1}, []int{markers[0].PageNo, markers[1].PageNo})
	assert.Len(t, records, 6)
	assert.Contains(t, secondPageQuery, "size=5")
}

func TestStream_EmbeddedFindingsItemKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{"findings": itemsPage(2)},
		})
	}))
	defer ts.Close()

	markers, records := collectStream(t, newService(ts), "r-1", 100)
	require.Len(t, markers, 1)
	assert.Len(t, records, 2)
}

func TestHalNextWithSize_PreservesExistingSize(t *testing.T) {
	page := map[string]any{
		"_links": map[string]any{
			"next": map[string]any{"href": "/report/r-1?page=2&size=250"},
		},
	}
	next := halNextWithSize(page, 1000)
	assert.Contains(t, next, "size=250")
	assert.NotContains(t, next, "size=1000")
}
