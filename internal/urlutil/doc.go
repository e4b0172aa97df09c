// Package urlutil provides byte-offset-preserving URL helpers used by the
// crawler's link extraction.
//
// These helpers deliberately operate on raw strings rather than net/url
// values: link extraction records (begin, end) offsets into the fetched
// page body, and any parsing layer that re-allocates or normalizes the
// input would invalidate those offsets.
package urlutil
