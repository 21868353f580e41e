package shopify

import (
	"net/url"
	"strings"
)

// nextPageInfo extracts the page_info cursor of the rel="next" link from an
// Admin API Link header. Returns "" when there is no next page.
//
// The header looks like:
//
//	<https://x.myshopify.com/admin/api/2024-01/products.json?page_info=abc&limit=250>; rel="next"
//
// with multiple comma-separated entries when both directions exist.
func nextPageInfo(linkHeader string) string {
	for _, entry := range strings.Split(linkHeader, ",") {
		parts := strings.Split(entry, ";")
		if len(parts) < 2 {
			continue
		}
		if !isNextRel(parts[1:]) {
			continue
		}
		target := strings.TrimSpace(parts[0])
		target = strings.TrimPrefix(target, "<")
		target = strings.TrimSuffix(target, ">")
		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		if pageInfo := u.Query().Get("page_info"); pageInfo != "" {
			return pageInfo
		}
	}
	return ""
}

func isNextRel(params []string) bool {
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == `rel="next"` || p == "rel=next" {
			return true
		}
	}
	return false
}
