// Copyright Veracode, Inc., 2026. All rights reserved.

package report

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

// Stream drains a completed report's pages exactly once, in order.
// Before each page's records it calls onPage with a page-boundary
// marker; then onRecord once per record. A non-nil error from either
// callback aborts the traversal.
//
// Page advance is layered, highest-priority signal first:
//  1. a HAL _links.next href, with the requested size injected when the
//     link omits it;
//  2. normalized page metadata, when number+1 < total_pages;
//  3. length fallback: a page with exactly `size` items suggests more;
//     a short or empty page is the final page.
func (s *Service) Stream(ctx context.Context, rid string, size int, onPage func(types.PageMarker) error, onRecord func(types.Record) error) error {
	pageNo := 0
	nextURL := pageURL(rid, pageNo, size)

	for nextURL != "" {
		page, err := s.Client.DoJSON(ctx, "GET", nextURL, nil)
		if err != nil {
			return fmt.Errorf("fetching page %d of report %s: %w", pageNo, rid, err)
		}

		items := extractItems(page)
		meta := NormalizeMeta(page)

		if err := onPage(types.PageMarker{PageNo: pageNo, Count: len(items), Meta: meta}); err != nil {
			return err
		}
		for _, it := range items {
			rec, ok := it.(map[string]any)
			if !ok {
				// Non-object item; wrap so counts stay honest.
				rec = map[string]any{"value": it}
			}
			if err := onRecord(types.Record(rec)); err != nil {
				return err
			}
		}

		if next := halNextWithSize(page, size); next != "" {
			nextURL = next
			pageNo++
			continue
		}

		if meta.Number != nil && meta.TotalPages != nil {
			// Metadata is authoritative: advance or finish, never fall
			// through to the length guess.
			if *meta.Number+1 < *meta.TotalPages {
				pageNo = *meta.Number + 1
				nextURL = pageURL(rid, pageNo, size)
				continue
			}
			break
		}

		if len(items) == size {
			pageNo++
			nextURL = pageURL(rid, pageNo, size)
			continue
		}

		nextURL = ""
	}
	return nil
}

// extractItems locates the page's record list under any of the item
// keys the API has been seen to use.
func extractItems(page map[string]any) []any {
	if items, ok := page["content"].([]any); ok {
		return items
	}
	if emb, ok := page["_embedded"].(map[string]any); ok {
		if items, ok := emb["items"].([]any); ok {
			return items
		}
		if items, ok := emb["findings"].([]any); ok {
			return items
		}
	}
	if items, ok := page["findings"].([]any); ok {
		return items
	}
	return nil
}

// halNext returns the _links.next href, or "" when absent. Relative
// hrefs stay relative; the transport resolves them against its base.
func halNext(page map[string]any) string {
	links, ok := page["_links"].(map[string]any)
	if !ok {
		return ""
	}
	next, ok := links["next"].(map[string]any)
	if !ok {
		return ""
	}
	href, _ := next["href"].(string)
	return href
}

// halNextWithSize follows the HAL next link, forcing the originally
// requested page size when the link omits a size parameter.
func halNextWithSize(page map[string]any, size int) string {
	href := halNext(page)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	q := u.Query()
	if q.Get("size") == "" {
		q.Set("size", strconv.Itoa(size))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func pageURL(rid string, page, size int) string {
	return fmt.Sprintf("%s/%s?page=%d&size=%d", reportPath, rid, page, size)
}
