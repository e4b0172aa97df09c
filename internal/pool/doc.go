// Package pool implements the fixed-size worker pool that executes
// crawl jobs.
//
// Each worker owns its own FIFO queue; plain submissions are spread
// round-robin, while a DataHandle pins a series of submissions to one
// worker so they execute sequentially. The pool supports three ways
// down: Close/Join drains every queue, TerminateDetach abandons queued
// work without waiting, and JoinExportAll waits for the workers to exit
// and hands every un-started job back to the caller.
package pool
