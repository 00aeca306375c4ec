package crawler

import (
	"bytes"
	"net/url"

	"golang.org/x/net/html"
)

// CountLinks parses the HTML body and counts the distinct anchor hrefs it
// contains, resolved against base. Schemes other than http and https are
// skipped and
// duplicate targets within one page count once. The link targets themselves
// are not kept; the crawl is seeded, not recursive.
func CountLinks(body []byte, base string) int {
	baseURL, err := url.Parse(base)
	if err != nil {
		return 0
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	seen := make(map[string]bool)
	count := 0
	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			// End of document or malformed input; either way the count of
			// links seen so far stands.
			return count
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				hrefURL, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				resolved := baseURL.ResolveReference(hrefURL)
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				target := resolved.String()
				if !seen[target] {
					seen[target] = true
					count++
				}
			}
		}
	}
}
