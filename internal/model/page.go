package model

import (
	"strings"

	"golang.org/x/net/html"
)

// PageResult is the report snapshot of one crawled page: where it sits
// in the tree, how the fetch went, and what matched.
type PageResult struct {
	// URL is the absolute URL the node was assigned.
	URL string `json:"url"`

	// Level is the depth from the seed; the seed is level 0.
	Level uint32 `json:"level"`

	// Order is the insertion index among siblings.
	Order uint32 `json:"order"`

	// StatusCode is the HTTP response status, 0 when the fetch never
	// produced a response.
	StatusCode int `json:"status_code"`

	// Fetched reports whether a page body was received.
	Fetched bool `json:"fetched"`

	// Parsed reports whether the page was scanned for links and text
	// matches.
	Parsed bool `json:"parsed"`

	// Title is the page title from the <title> tag, empty when absent
	// or the page was never fetched.
	Title string `json:"title,omitempty"`

	// LinkCount is the number of link targets extracted from the page.
	LinkCount int `json:"link_count"`

	// MatchCount is the number of text matches on the page.
	MatchCount int `json:"match_count"`

	// Matches holds excerpts around the first text matches, capped at
	// MaxExcerptsPerPage.
	Matches []string `json:"matches,omitempty"`
}

// maxTitleTokens bounds how far into a document the title scan looks.
// Real titles sit in <head>; a page that buries its title thousands of
// tokens deep is not worth scanning further.
const maxTitleTokens = 512

// ExtractTitle returns the text of the first <title> element in the
// document, whitespace-collapsed. Malformed HTML yields whatever the
// tokenizer can recover, or an empty string.
func ExtractTitle(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	inTitle := false
	for i := 0; i < maxTitleTokens; i++ {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.EndTagToken:
			inTitle = false
		case html.TextToken:
			if inTitle {
				return strings.Join(strings.Fields(z.Token().Data), " ")
			}
		}
	}
	return ""
}
