package circuit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// fetchAll walks a paginated list endpoint and concatenates the named list
// field across pages, preserving order. The page token rides in the
// pageToken query parameter; a page without a nextPageToken is the last.
// Rate limiting inside a page fetch retries the same page, so the token
// never advances past an unfetched page.
func fetchAll[T any](ctx context.Context, c *caller, baseURL, field string, class Class) ([]T, error) {
	var out []T
	token := ""
	for {
		pageURL := baseURL
		if token != "" {
			sep := "?"
			if strings.Contains(baseURL, "?") {
				sep = "&"
			}
			pageURL = baseURL + sep + "pageToken=" + url.QueryEscape(token)
		}

		var raw map[string]json.RawMessage
		if err := c.do(ctx, request{method: http.MethodGet, url: pageURL, class: class}, &raw); err != nil {
			return nil, err
		}

		if items, ok := raw[field]; ok {
			var page []T
			if err := json.Unmarshal(items, &page); err != nil {
				return nil, fmt.Errorf("decode %q page: %w", field, err)
			}
			out = append(out, page...)
		}

		token = ""
		if t, ok := raw["nextPageToken"]; ok {
			if err := json.Unmarshal(t, &token); err != nil {
				return nil, fmt.Errorf("decode nextPageToken: %w", err)
			}
		}
		if token == "" {
			return out, nil
		}
	}
}
