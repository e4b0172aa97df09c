package graph

import (
	"log/slog"
	"sync/atomic"

	"github.com/blinkenlichten/webgrep/internal/urlutil"
)

// DefaultMaxNodes is the default per-tree allocation ceiling. The value
// is sized for roughly 2GB of resident pages at ~200KB per page.
const DefaultMaxNodes = 8192

// LinkedTask is one node of the crawl tree. The link slots next, child,
// root and parent are atomic so the tree shape can be read from any
// goroutine without locking; next and child are appended by the owning
// task and never reassigned while the node is reachable (except for
// SpawnChildNode's documented expel contract).
//
// The root node owns allocation accounting and the node factory and
// deleter; all other nodes delegate through their root pointer.
type LinkedTask struct {
	// Level is the depth from the root; the root is level 0.
	Level uint32

	// Order is the insertion index among siblings spawned through the
	// same node.
	Order uint32

	next   atomic.Pointer[LinkedTask]
	child  atomic.Pointer[LinkedTask]
	root   atomic.Pointer[LinkedTask]
	parent atomic.Pointer[LinkedTask]

	// GrepVars holds the node's fetch state and match results.
	GrepVars GrepVars

	// childNodesCount counts children and siblings spawned through this
	// node; the value at linkage time becomes the new node's Order.
	childNodesCount atomic.Uint32

	// scannedNodesCount counts siblings of the chain headed by this node
	// whose scan attempt has finished. Used to detect chain completion.
	scannedNodesCount atomic.Uint32

	// nodeAllocationsCount and maxNodesQuantity are meaningful on the
	// root only. The root itself counts as one allocation.
	nodeAllocationsCount atomic.Uint32
	maxNodesQuantity     atomic.Uint32

	// LinksCounter and MaxLinksCount reference the crawler-owned link
	// budget shared by every node in the tree. They must outlive the
	// tree.
	LinksCounter  *atomic.Uint32
	MaxLinksCount *atomic.Uint32

	// MakeNewNode and DeleteNode are set on the root node only; child
	// nodes reach them through the root pointer.
	MakeNewNode func(root *LinkedTask) *LinkedTask
	DeleteNode  func(root, node *LinkedTask)
}

// NewRootNode creates the root of a new crawl tree with the default
// allocation ceiling and the default factory and deleter installed.
func NewRootNode() *LinkedTask {
	t := &LinkedTask{}
	t.root.Store(t)
	t.maxNodesQuantity.Store(DefaultMaxNodes)
	t.nodeAllocationsCount.Store(1) // the root itself
	t.MakeNewNode = makeNode
	t.DeleteNode = deleteNode
	return t
}

// makeNode is the default node factory. It returns nil, without
// panicking, when the root's allocation ceiling is reached.
func makeNode(root *LinkedTask) *LinkedTask {
	cur := root.nodeAllocationsCount.Load()
	if root.maxNodesQuantity.Load() <= cur {
		slog.Warn("maximum node count reached", "allocated", cur)
		return nil
	}
	node := &LinkedTask{}
	node.root.Store(root)
	root.nodeAllocationsCount.Add(1)
	return node
}

// deleteNode is the default node deleter: it unlinks the node and
// returns its allocation to the root's budget.
func deleteNode(root, node *LinkedTask) {
	node.next.Store(nil)
	node.child.Store(nil)
	node.parent.Store(nil)
	node.root.Store(nil)
	root.nodeAllocationsCount.Add(^uint32(0))
}

// Next returns the same-level sibling, or nil.
func (t *LinkedTask) Next() *LinkedTask { return t.next.Load() }

// Child returns the first node one level deeper, or nil.
func (t *LinkedTask) Child() *LinkedTask { return t.child.Load() }

// Root returns the tree's root node. On the root it returns the node
// itself.
func (t *LinkedTask) Root() *LinkedTask { return t.root.Load() }

// Parent returns the node this one was spawned from, or nil on the root.
func (t *LinkedTask) Parent() *LinkedTask { return t.parent.Load() }

// ChildNodesCount returns how many children and siblings have been
// spawned through this node.
func (t *LinkedTask) ChildNodesCount() uint32 { return t.childNodesCount.Load() }

// AllocationsCount returns the number of nodes currently alive in this
// tree. Meaningful on the root.
func (t *LinkedTask) AllocationsCount() uint32 { return t.Root().nodeAllocationsCount.Load() }

// MaxNodesQuantity returns the tree's allocation ceiling.
func (t *LinkedTask) MaxNodesQuantity() uint32 { return t.Root().maxNodesQuantity.Load() }

// SetMaxNodesQuantity adjusts the allocation ceiling on the root.
func (t *LinkedTask) SetMaxNodesQuantity(n uint32) { t.Root().maxNodesQuantity.Store(n) }

// ShallowCopy copies shared state from other into t: level, root and
// parent pointers, scheme, search expression, the link budget and the
// allocation ceiling. The next link, target URL and page content are
// never copied.
func (t *LinkedTask) ShallowCopy(other *LinkedTask) {
	t.Level = other.Level
	t.root.Store(other.root.Load())
	t.parent.Store(other.parent.Load())
	t.GrepVars.GrepExpr = other.GrepVars.GrepExpr
	t.GrepVars.Scheme = other.GrepVars.Scheme
	t.LinksCounter = other.LinksCounter
	t.MaxLinksCount = other.MaxLinksCount
	t.maxNodesQuantity.Store(other.maxNodesQuantity.Load())
}

// LastOnLevel walks the next chain from t and returns the last node on
// this level; t itself when it has no siblings.
func (t *LinkedTask) LastOnLevel() *LinkedTask {
	last := t
	for item := last.next.Load(); item != nil; item = last.next.Load() {
		last = item
	}
	return last
}

// SpawnChildNode creates a node one level deeper and publishes it as
// t's child. The previous child subtree, if any, is expelled: ownership
// transfers to the caller, who must delete it (DeleteList) before the
// new subtree is scheduled anywhere.
//
// Returns a nil child when the root's allocation ceiling is reached;
// the expelled subtree is returned in either case.
func (t *LinkedTask) SpawnChildNode() (child, expelled *LinkedTask) {
	root := t.Root()
	expelled = t.child.Load()
	item := root.MakeNewNode(root)
	if item == nil {
		return nil, expelled
	}
	item.ShallowCopy(t)
	item.parent.Store(t)
	item.Level = t.Level + 1
	item.Order = t.childNodesCount.Load()
	t.child.Store(item)
	t.childNodesCount.Add(1)
	return item, expelled
}

// SpawnNextNodes appends up to n fresh siblings after the last node on
// t's level. Each new sibling shallow-copies t and takes its Order from
// t's child counter at linkage time. Allocation failure stops the chain
// early.
//
// Returns the number of siblings actually appended.
func (t *LinkedTask) SpawnNextNodes(n int) int {
	if n <= 0 {
		return 0
	}
	root := t.Root()
	last := t.LastOnLevel()

	count := 0
	for ; count < n; count++ {
		item := root.MakeNewNode(root)
		if item == nil {
			break
		}
		item.ShallowCopy(t)
		item.parent.Store(t.parent.Load())
		item.Order = t.childNodesCount.Load()
		last.next.Store(item)
		t.childNodesCount.Add(1)
		last = item
	}
	return count
}

// SpawnGreppedSubtasks turns the URL matches of source into siblings
// of t on the current level, capped by the remaining link budget. The
// first match is considered already represented by t itself, so one
// sibling fewer than the quota is appended and each visited node
// (including t) is assigned the corresponding match resolved through
// urlutil.MakeFullPath, together with source's scheme.
//
// The shared links counter is incremented by exactly the number of
// nodes that received a target URL, and that count is returned. It
// never moves past the configured maximum. If source is not parsed
// yet, has no URL matches, or the budget is spent, nothing happens and
// 0 is returned.
func (t *LinkedTask) SpawnGreppedSubtasks(hostPort string, source *GrepVars, skip int) int {
	if !source.PageIsParsed() || len(source.MatchURLVector) == 0 {
		return 0
	}

	quota := len(source.MatchURLVector)
	if t.LinksCounter != nil && t.MaxLinksCount != nil {
		remaining := int(t.MaxLinksCount.Load()) - int(t.LinksCounter.Load())
		if remaining <= 0 {
			return 0
		}
		if remaining < quota {
			quota = remaining
		}
	}

	t.SpawnNextNodes(quota - 1)

	scheme := source.Scheme.String()
	assigned := 0
	ForEachOnBranch(t, func(node *LinkedTask) {
		if assigned >= quota {
			return
		}
		m := source.MatchURLVector[assigned]
		link := source.PageContent[m.Begin:m.End]
		node.GrepVars.TargetURL = urlutil.MakeFullPath(link, hostPort, source.TargetURL, scheme)
		node.GrepVars.Scheme = source.Scheme
		assigned++
	}, skip)

	if t.LinksCounter != nil {
		t.LinksCounter.Add(uint32(assigned))
	}
	return assigned
}

// AbandonChild unlinks t's current child subtree and deletes it,
// returning its allocations to the root. Safe to call when there is no
// child.
func (t *LinkedTask) AbandonChild() {
	if sub := t.child.Swap(nil); sub != nil {
		DeleteList(sub)
	}
}

// ScanAttemptFinished records that one sibling of the chain headed by
// head has finished its scan attempt, successfully or not. It reports
// true exactly once per chain: when the last outstanding sibling
// finishes. The chain must not gain siblings once scanning has begun.
func ScanAttemptFinished(head *LinkedTask) bool {
	total := uint32(0)
	for item := head; item != nil; item = item.next.Load() {
		total++
	}
	return head.scannedNodesCount.Add(1) == total
}
