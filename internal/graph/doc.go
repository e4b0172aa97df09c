// Package graph implements the crawl task tree.
//
// The tree is built from LinkedTask nodes connected through atomic
// pointer slots (next, child, root, parent), so readers can walk the
// structure without locking while the owning task appends new nodes.
// Each node carries one URL's fetch and match state in GrepVars; the
// pageIsReady and pageIsParsed bits act as publish fences for the page
// body and the match vectors.
//
// Allocation is bounded per tree: the root node counts live nodes and
// refuses to create new ones past its configured ceiling. The shared
// link budget (links counter and its maximum) is owned by the crawler
// and referenced from every node.
package graph
