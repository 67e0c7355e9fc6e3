// Copyright Veracode, Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestNormalizeMeta_CamelCaseTopLevel(t *testing.T) {
	payload := parsePayload(t, `{
		"page": {"number": 1, "totalPages": 5, "size": 100},
		"totalElements": 460
	}`)

	meta := NormalizeMeta(payload)
	require.NotNil(t, meta.Number)
	assert.Equal(t, 1, *meta.Number)
	require.NotNil(t, meta.TotalPages)
	assert.Equal(t, 5, *meta.TotalPages)
	require.NotNil(t, meta.Size)
	assert.Equal(t, 100, *meta.Size)
	require.NotNil(t, meta.TotalElements)
	assert.Equal(t, 460, *meta.TotalElements)
}

func TestNormalizeMeta_SnakeCaseEmbedded(t *testing.T) {
	payload := parsePayload(t, `{
		"_embedded": {
			"page_metadata": {"page_number": "2", "total_pages": 7}
		}
	}`)

	meta := NormalizeMeta(payload)
	require.NotNil(t, meta.Number)
	assert.Equal(t, 2, *meta.Number)
	require.NotNil(t, meta.TotalPages)
	assert.Equal(t, 7, *meta.TotalPages)
	assert.Nil(t, meta.Size)
}

func TestNormalizeMeta_FirstNonNullWinsAcrossSources(t *testing.T) {
	payload := parsePayload(t, `{
		"page": {"number": 1},
		"page_metadata": {"page_number": 9, "total_pages": 4}
	}`)

	meta := NormalizeMeta(payload)
	require.NotNil(t, meta.Number)
	assert.Equal(t, 1, *meta.Number)
	require.NotNil(t, meta.TotalPages)
	assert.Equal(t, 4, *meta.TotalPages)
}

func TestNormalizeMeta_UnrecognizableYieldsAllNull(t *testing.T) {
	payload := parsePayload(t, `{"content": [], "weird": {"stuff": true}}`)

	meta := NormalizeMeta(payload)
	assert.Nil(t, meta.Number)
	assert.Nil(t, meta.TotalPages)
	assert.Nil(t, meta.Size)
	assert.Nil(t, meta.TotalElements)
}

func TestNormalizeMeta_EmbeddedTotalElements(t *testing.T) {
	payload := parsePayload(t, `{
		"_embedded": {"page": {"totalElements": 12}}
	}`)

	meta := NormalizeMeta(payload)
	require.NotNil(t, meta.TotalElements)
	assert.Equal(t, 12, *meta.TotalElements)
}
