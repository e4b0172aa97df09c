package graph

import (
	"regexp"
	"sync/atomic"
)

// SchemeLen is the fixed capacity of the scheme buffer. It holds exactly
// "http\0\0" or "https\0" so it can be copied into child nodes by value.
const SchemeLen = 6

// Scheme is a fixed-size scheme buffer, zero-padded.
type Scheme [SchemeLen]byte

// SchemeOf builds a Scheme buffer from a scheme string. Input longer
// than the buffer is truncated.
func SchemeOf(s string) Scheme {
	var sc Scheme
	copy(sc[:], s)
	return sc
}

// String returns the scheme without trailing zero padding.
func (s Scheme) String() string {
	n := 0
	for n < SchemeLen && s[n] != 0 {
		n++
	}
	return string(s[:n])
}

// MatchRange locates one match inside GrepVars.PageContent as a
// half-open byte offset interval [Begin, End).
type MatchRange struct {
	Begin int
	End   int
}

// GrepVars is the mutable payload of a LinkedTask: the URL to fetch,
// the fetched page, and the positions of matched URLs and matched text
// within it.
//
// PageContent is written exactly once, before PublishPageReady; the
// match vectors are written exactly once, before PublishPageParsed.
// Any goroutine that observes PageIsParsed() == true therefore sees a
// fully-written page body and match vectors whose offsets are valid for
// that body.
type GrepVars struct {
	// Scheme holds "http" or "https" zero-padded to SchemeLen bytes.
	Scheme Scheme

	// TargetURL is the absolute URL to fetch.
	TargetURL string

	// GrepExpr is the user-supplied text search expression.
	GrepExpr *regexp.Regexp

	// ResponseCode is the last HTTP status, 0 until a response arrives.
	ResponseCode int

	// PageContent is the response body. Stable for the node's lifetime
	// once PageIsReady is published.
	PageContent string

	// MatchURLVector holds offsets of extracted href targets in
	// PageContent, in document order.
	MatchURLVector []MatchRange

	// MatchTextVector holds offsets of GrepExpr matches in PageContent,
	// in document order.
	MatchTextVector []MatchRange

	pageIsReady  atomic.Bool
	pageIsParsed atomic.Bool
}

// PageIsReady reports whether PageContent has been fully written.
func (g *GrepVars) PageIsReady() bool { return g.pageIsReady.Load() }

// PublishPageReady marks PageContent as complete. Called exactly once,
// after the body and ResponseCode are written.
func (g *GrepVars) PublishPageReady() { g.pageIsReady.Store(true) }

// PageIsParsed reports whether both match vectors have been fully
// written. Implies PageIsReady.
func (g *GrepVars) PageIsParsed() bool { return g.pageIsParsed.Load() }

// PublishPageParsed marks the match vectors as complete. Called exactly
// once, after both vectors are written.
func (g *GrepVars) PublishPageParsed() { g.pageIsParsed.Store(true) }

// MatchedURL returns the i-th extracted URL as a string slice of
// PageContent.
func (g *GrepVars) MatchedURL(i int) string {
	m := g.MatchURLVector[i]
	return g.PageContent[m.Begin:m.End]
}

// MatchedText returns the i-th text match as a string slice of
// PageContent.
func (g *GrepVars) MatchedText(i int) string {
	m := g.MatchTextVector[i]
	return g.PageContent[m.Begin:m.End]
}
