// Copyright Veracode, Inc., 2026. All rights reserved.

package report

import (
	"strconv"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// metaSource locates one candidate pagination-metadata object inside a
// page payload. Sources are tried in order and each may return nil.
type metaSource func(payload map[string]any) map[string]any

func topLevel(key string) metaSource {
	return func(payload map[string]any) map[string]any {
		m, _ := payload[key].(map[string]any)
		return m
	}
}

func embeddedKey(key string) metaSource {
	return func(payload map[string]any) map[string]any {
		emb, _ := payload["_embedded"].(map[string]any)
		if emb == nil {
			return nil
		}
		m, _ := emb[key].(map[string]any)
		return m
	}
}

func self() metaSource {
	return func(payload map[string]any) map[string]any { return payload }
}

func embeddedSelf() metaSource {
	return func(payload map[string]any) map[string]any {
		emb, _ := payload["_embedded"].(map[string]any)
		return emb
	}
}

// metaSources lists where pagination metadata may live, in priority
// order: a "page" or "page_metadata" object, either top-level or under
// "_embedded".
var metaSources = []metaSource{
	topLevel("page"),
	topLevel("page_metadata"),
	embeddedKey("page"),
	embeddedKey("page_metadata"),
}

// elementSources additionally covers payloads that report total element
// counts at the top level or directly under "_embedded".
var elementSources = []metaSource{
	self(),
	topLevel("page"),
	topLevel("page_metadata"),
	embeddedSelf(),
	embeddedKey("page"),
	embeddedKey("page_metadata"),
}

// NormalizeMeta folds the metadata sources left to right, keeping the
// first non-null value per field. Both camelCase and snake_case field
// names are recognized. A payload with no recognizable metadata yields
// all-null fields, never an error; the length-based traversal fallback
// still makes progress on such responses.
func NormalizeMeta(payload map[string]any) types.PageMeta {
	var meta types.PageMeta
	for _, src := range metaSources {
		c := src(payload)
		if c == nil {
			continue
		}
		if meta.Number == nil {
			meta.Number = intField(c, "number", "page_number")
		}
		if meta.TotalPages == nil {
			meta.TotalPages = intField(c, "totalPages", "total_pages")
		}
		if meta.Size == nil {
			meta.Size = intField(c, "size")
		}
	}
	for _, src := range elementSources {
		c := src(payload)
		if c == nil {
			continue
		}
		if meta.TotalElements == nil {
			meta.TotalElements = intField(c, "totalElements", "total_elements")
		}
	}
	return meta
}

// intField returns the first alias present in m that coerces to an int.
// JSON numbers arrive as float64; numeric strings are accepted too.
func intField(m map[string]any, aliases ...string) *int {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			i := int(n)
			return &i
		case int:
			i := n
			return &i
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return &i
			}
		}
	}
	return nil
}
