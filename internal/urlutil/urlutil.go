package urlutil

import "strings"

// MaxURLLen is the upper bound on how far the scanning helpers look into
// a string. Links longer than this are not valid crawl targets.
const MaxURLLen = 8192

// schemeSep separates the scheme from the authority in an absolute URL.
const schemeSep = "://"

// ExtractHostPort extracts "host[:port]" from a URL.
//
// The host span starts immediately after the first "://" (or at offset 0
// if the separator is absent) and ends at the next '/' or at the end of
// the string:
//
//	ExtractHostPort("https://site.com:443/a/b") == "site.com:443"
//	ExtractHostPort("site.com/a")               == "site.com"
func ExtractHostPort(targetURL string) string {
	rest := targetURL
	if idx := strings.Index(targetURL, schemeSep); idx >= 0 {
		rest = targetURL[idx+len(schemeSep):]
	}
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// FindURLAddressBegin returns the offset of the first character after a
// "://" sequence found within the first min(nmax, MaxURLLen) bytes of s,
// or nmax if no separator is present. A string starting with '/' is a
// local path and yields offset 0.
func FindURLAddressBegin(s string, nmax int) int {
	if len(s) == 0 {
		return nmax
	}
	if s[0] == '/' {
		return 0
	}
	bound := min(nmax, MaxURLLen, len(s))
	idx := strings.Index(s[:bound], schemeSep)
	if idx < 0 {
		return nmax
	}
	return idx + len(schemeSep)
}

// FindURLPathBegin returns the offset of the first '/' at or after the
// address-begin offset of s, scanning no further than min(nmax,
// MaxURLLen, len(s)); that bound is returned when no '/' is found. When
// the address-begin offset is not below the bound (no "://" in range),
// the scan starts at offset 0.
func FindURLPathBegin(s string, nmax int) int {
	bound := min(nmax, MaxURLLen, len(s))
	start := FindURLAddressBegin(s, nmax)
	if start >= bound {
		start = 0
	}
	for i := start; i < bound; i++ {
		if s[i] == '/' {
			return i
		}
	}
	return bound
}

// quoteStopSet contains the characters that terminate a quoted attribute
// value or a bare URL embedded in HTML.
const quoteStopSet = "\"'\n> <\x00"

// FindClosingQuote scans s for the first character that terminates a
// quoted attribute value and returns its offset. If none is found the
// length of s is returned.
func FindClosingQuote(s string) int {
	if idx := strings.IndexAny(s, quoteStopSet); idx >= 0 {
		return idx
	}
	return len(s)
}

// MakeFullPath unfolds a possibly-relative link into an absolute URL
// using the base page's target URL, scheme and host:port.
//
// Three cases, checked in order:
//   - no leading '/' and no "://" within the link: a sibling path,
//     resolved as baseURL + "/" + link;
//   - leading '/': an absolute path on the same host, resolved as
//     scheme + "://" + hostPort + link;
//   - anything else already carries a scheme and is returned unchanged.
func MakeFullPath(link, hostPort, baseURL, scheme string) string {
	if link == "" {
		return baseURL
	}
	upos := FindURLAddressBegin(link, len(link))
	switch {
	case link[0] != '/' && len(link) <= upos:
		var b strings.Builder
		b.Grow(len(baseURL) + 1 + len(link))
		b.WriteString(baseURL)
		b.WriteByte('/')
		b.WriteString(link)
		return b.String()
	case upos == 0:
		var b strings.Builder
		b.Grow(len(scheme) + len(schemeSep) + len(hostPort) + len(link))
		b.WriteString(scheme)
		b.WriteString(schemeSep)
		b.WriteString(hostPort)
		b.WriteString(link)
		return b.String()
	default:
		return link
	}
}
