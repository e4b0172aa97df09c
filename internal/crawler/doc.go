// Package crawler orchestrates the crawl: it owns the task tree root,
// the worker pool and the shared link budget, runs the seed page on the
// calling goroutine, and ventilates the first-level children across the
// pool.
//
// Work that arrives while the pool is closed (during a stop) is parked
// in two pockets, one for structured tasks and one for opaque functors,
// and drained by the next start on the same root. Node-lifecycle
// callbacks and the exception sink are plain function fields, snapshot
// into every worker context so they can be swapped between crawls
// without racing in-flight work.
package crawler
