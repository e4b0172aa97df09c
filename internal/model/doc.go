// Package model defines the crawl report data structures.
//
// This package contains the following main types:
//   - PageResult: one page's position, fetch state and matches
//   - CrawlReport: a flattened snapshot of a finished crawl tree
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. Both the crawler-facing snapshot code and the
// report writers need these types, so centralizing them prevents import
// cycles.
//
// The models are designed to be serializable to JSON for report output.
package model
