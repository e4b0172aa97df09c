package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinkenlichten/webgrep/internal/fetch"
	"github.com/blinkenlichten/webgrep/internal/graph"
	"github.com/blinkenlichten/webgrep/internal/pool"
	"github.com/blinkenlichten/webgrep/internal/urlutil"
)

// Defaults applied by New unless overridden by options or Start
// arguments.
const (
	DefaultMaxLinks = 4096
	DefaultThreads  = 4
)

// Callback is one node-lifecycle notification. Every callback receives
// the tree root and the node the event is about.
type Callback func(root, node *graph.LinkedTask)

// Crawler owns one crawl tree and the pool it runs on. The control
// methods Start, StartRoot, Stop, Clear and SetThreadsNumber are
// expected to be called from a single control goroutine; the internal
// mutex protects the pool and root handles from the worker-side
// scheduling closures.
type Crawler struct {
	// OnSingleNodeScanned fires once per node, after its page is parsed.
	OnSingleNodeScanned Callback

	// OnNodeListScanned fires once per sibling chain, after every
	// sibling's scan attempt has finished.
	OnNodeListScanned Callback

	// OnLevelSpawned fires once per parent, after a new layer of
	// children has been attached.
	OnLevelSpawned Callback

	// OnException receives error descriptions from worker actions and
	// scheduling. Nil falls back to the structured log.
	OnException func(msg string)

	mu       sync.Mutex
	taskRoot *graph.LinkedTask
	workers  *pool.Pool

	maxLinksCount     atomic.Uint32
	currentLinksCount atomic.Uint32
	maxNodes          uint32

	lonelyMu    sync.Mutex
	lonelyTasks []LonelyTask

	lonelyFnMu     sync.Mutex
	lonelyFunctors []func()

	newClient func() (*fetch.Client, error)
	runCtx    context.Context
	logger    *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithClientFactory replaces how per-worker HTTP clients are built.
func WithClientFactory(factory func() (*fetch.Client, error)) Option {
	return func(c *Crawler) { c.newClient = factory }
}

// WithMaxNodes sets the per-tree node allocation ceiling.
func WithMaxNodes(n uint32) Option {
	return func(c *Crawler) { c.maxNodes = n }
}

// WithContext sets the context passed to every HTTP request issued by
// worker actions.
func WithContext(ctx context.Context) Option {
	return func(c *Crawler) { c.runCtx = ctx }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// New creates a Crawler with a one-thread pool, ready for Start.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		maxNodes: graph.DefaultMaxNodes,
		runCtx:   context.Background(),
		logger:   slog.Default(),
		newClient: func() (*fetch.Client, error) {
			return fetch.New()
		},
	}
	c.maxLinksCount.Store(DefaultMaxLinks)
	for _, opt := range opts {
		opt(c)
	}
	c.workers = pool.New(1)
	return c
}

// Root returns the current crawl tree root, nil before the first Start.
func (c *Crawler) Root() *graph.LinkedTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taskRoot
}

// LinksCount returns the number of child URLs spawned so far.
func (c *Crawler) LinksCount() uint32 { return c.currentLinksCount.Load() }

// SetMaxLinks adjusts the global link budget.
func (c *Crawler) SetMaxLinks(n uint32) { c.maxLinksCount.Store(n) }

// SetThreadsNumber replaces the pool with one of n workers, draining
// the current pool first. A zero value is ignored with a warning.
func (c *Crawler) SetThreadsNumber(n uint32) {
	if n == 0 {
		c.logger.Warn("thread count 0 ignored")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.workers != nil {
		c.workers.Join()
	}
	c.workers = pool.New(int(n))
}

// Start crawls url for pages matching grepRegex. The seed page is
// fetched and parsed on the calling goroutine; its links become the
// first child chain, ventilated across the pool.
//
// Starting with the URL of the current root resumes it: pocketed work
// is reinjected, and a root whose page is already parsed is not fetched
// again unless force is set. Starting with a different URL abandons the
// previous tree and its pockets.
//
// Errors are reported through OnException; the return value only says
// whether the seed crawl was set in motion.
func (c *Crawler) Start(url, grepRegex string, maxLinks, nThreads uint32, force bool) bool {
	if maxLinks == 0 {
		maxLinks = DefaultMaxLinks
	}
	expr, err := regexp.Compile(grepRegex)
	if err != nil {
		c.reportError(fmt.Sprintf("bad search expression %q: %v", grepRegex, err))
		return false
	}
	c.SetMaxLinks(maxLinks)

	c.mu.Lock()
	sameRoot := c.taskRoot != nil && c.taskRoot.GrepVars.TargetURL == url
	if sameRoot {
		c.stopLocked()
	} else if c.workers != nil {
		c.workers.TerminateDetach()
	}

	want := int(nThreads)
	if want == 0 {
		// A zero thread count is ignored; the current pool size stands.
		c.logger.Warn("thread count 0 ignored")
		if c.workers != nil {
			want = c.workers.ThreadsCount()
		} else {
			want = DefaultThreads
		}
	}
	if c.workers == nil || c.workers.Closed() || c.workers.ThreadsCount() != want {
		c.workers = pool.New(want)
	}

	if sameRoot {
		c.drainPockets(c.workers)
	} else {
		c.dropPockets()
		if c.taskRoot != nil {
			graph.DeleteList(c.taskRoot)
		}
		c.currentLinksCount.Store(0)
		root := graph.NewRootNode()
		root.LinksCounter = &c.currentLinksCount
		root.MaxLinksCount = &c.maxLinksCount
		root.SetMaxNodesQuantity(c.maxNodes)
		root.GrepVars.TargetURL = url
		c.taskRoot = root
	}
	root := c.taskRoot
	root.GrepVars.GrepExpr = expr
	c.mu.Unlock()

	if root.GrepVars.PageIsParsed() && !force {
		// The cached tree is current; nothing to fetch.
		return true
	}
	return c.crawlSeed(root)
}

// StartRoot adopts root as the crawl tree and crawls it with nThreads
// workers. The node must already carry its target URL and, when text
// matches are wanted, a compiled expression; its counters are rewired
// to this Crawler. Adopting the current root resumes it, reinjecting
// pocketed work; a root whose page is already parsed is left alone
// unless forceRebuild is set. Adopting a different root abandons the
// previous tree and its pockets.
func (c *Crawler) StartRoot(root *graph.LinkedTask, nThreads uint32, forceRebuild bool) bool {
	if root == nil {
		c.reportError("nil root node")
		return false
	}

	c.mu.Lock()
	sameRoot := c.taskRoot == root
	if sameRoot {
		c.stopLocked()
	} else if c.workers != nil {
		c.workers.TerminateDetach()
	}

	want := int(nThreads)
	if want == 0 {
		c.logger.Warn("thread count 0 ignored")
		if c.workers != nil {
			want = c.workers.ThreadsCount()
		} else {
			want = DefaultThreads
		}
	}
	if c.workers == nil || c.workers.Closed() || c.workers.ThreadsCount() != want {
		c.workers = pool.New(want)
	}

	if sameRoot {
		c.drainPockets(c.workers)
	} else {
		c.dropPockets()
		if c.taskRoot != nil {
			graph.DeleteList(c.taskRoot)
		}
		c.currentLinksCount.Store(0)
		root.LinksCounter = &c.currentLinksCount
		root.MaxLinksCount = &c.maxLinksCount
		c.taskRoot = root
	}
	c.mu.Unlock()

	if root.GrepVars.PageIsParsed() && !forceRebuild {
		return true
	}
	return c.crawlSeed(root)
}

// crawlSeed fetches and parses the root page on the calling goroutine,
// attaches its links as the first child chain and ventilates them
// across the pool.
func (c *Crawler) crawlSeed(root *graph.LinkedTask) bool {
	wctx, err := c.makeWorkerContext(root)
	if err != nil {
		c.reportError(fmt.Sprintf("worker context: %v", err))
		return false
	}

	if !GrepOne(root, &wctx) {
		return false
	}
	if wctx.HostPort == "" {
		// A root downloaded earlier skips the fetch that records it.
		wctx.HostPort = urlutil.ExtractHostPort(root.GrepVars.TargetURL)
	}

	child, expelled := root.SpawnChildNode()
	graph.DeleteList(expelled)
	if child == nil {
		return false
	}
	spawned := child.SpawnGreppedSubtasks(wctx.HostPort, &root.GrepVars, 0)
	c.logger.Info("seed page processed", "url", root.GrepVars.TargetURL, "spawned", spawned)
	if spawned == 0 {
		root.AbandonChild()
		return true
	}

	if cb := c.OnNodeListScanned; cb != nil {
		cb(root, root)
	}
	if cb := c.OnLevelSpawned; cb != nil {
		cb(root, child)
	}

	wctx.ScheduleBranchExec(child, DownloadGrepRecursive, 0, true)
	return true
}

// Stop closes the pool to new work at once; a detached waiter joins the
// workers and pockets every un-started functor for the next start.
// Stop itself returns immediately.
func (c *Crawler) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *Crawler) stopLocked() {
	p := c.workers
	if p == nil {
		return
	}
	p.TerminateDetach()
	go p.JoinExportAll(func(orphans []func()) {
		if len(orphans) == 0 {
			return
		}
		c.lonelyFnMu.Lock()
		c.lonelyFunctors = append(c.lonelyFunctors, orphans...)
		c.lonelyFnMu.Unlock()
	})
}

// Clear stops the pool, waits for the workers to exit, and releases
// the crawl tree, the link counter and both pockets.
func (c *Crawler) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.workers != nil {
		c.workers.TerminateDetach()
		c.workers.Join()
	}
	if c.taskRoot != nil {
		graph.DeleteList(c.taskRoot)
		c.taskRoot = nil
	}
	c.currentLinksCount.Store(0)
	c.dropPockets()
}

// Shutdown drains the pool and stops its workers, keeping the crawl
// tree intact for reporting.
func (c *Crawler) Shutdown() {
	c.mu.Lock()
	p := c.workers
	c.mu.Unlock()
	if p != nil {
		p.Join()
	}
}

// WaitIdle blocks until the pool has no queued or running work, or ctx
// expires.
func (c *Crawler) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		c.mu.Lock()
		p := c.workers
		c.mu.Unlock()
		if p == nil || p.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dropPockets discards both pockets. Callers hold c.mu.
func (c *Crawler) dropPockets() {
	c.lonelyMu.Lock()
	c.lonelyTasks = nil
	c.lonelyMu.Unlock()
	c.lonelyFnMu.Lock()
	c.lonelyFunctors = nil
	c.lonelyFnMu.Unlock()
}

// drainPockets resubmits pocketed work to p and empties the pockets.
// Callers hold c.mu.
func (c *Crawler) drainPockets(p *pool.Pool) {
	c.lonelyFnMu.Lock()
	fns := c.lonelyFunctors
	c.lonelyFunctors = nil
	c.lonelyFnMu.Unlock()
	if len(fns) > 0 {
		if err := p.SubmitBatch(fns); err != nil {
			c.lonelyFnMu.Lock()
			c.lonelyFunctors = append(fns, c.lonelyFunctors...)
			c.lonelyFnMu.Unlock()
		}
	}

	c.lonelyMu.Lock()
	tasks := c.lonelyTasks
	c.lonelyTasks = nil
	c.lonelyMu.Unlock()
	for _, t := range tasks {
		if err := p.SubmitTask(t); err != nil {
			c.pocketTask(t)
		}
	}
}

func (c *Crawler) pocketTask(t LonelyTask) {
	c.lonelyMu.Lock()
	c.lonelyTasks = append(c.lonelyTasks, t)
	c.lonelyMu.Unlock()
}

func (c *Crawler) pocketFunctor(fn func()) {
	c.lonelyFnMu.Lock()
	c.lonelyFunctors = append(c.lonelyFunctors, fn)
	c.lonelyFnMu.Unlock()
}

// scheduleTask submits a structured task, pocketing it when the pool
// is closed.
func (c *Crawler) scheduleTask(t LonelyTask) {
	c.mu.Lock()
	p := c.workers
	c.mu.Unlock()
	if p == nil || p.Closed() {
		c.pocketTask(t)
		return
	}
	if err := p.SubmitTask(t); err != nil {
		c.pocketTask(t)
	}
}

// scheduleTaskPinned submits a structured task to one specific worker,
// pocketing it when the pool is closed.
func (c *Crawler) scheduleTaskPinned(h pool.DataHandle, t LonelyTask) {
	if err := h.Submit(t.RunTask); err != nil {
		c.pocketTask(t)
	}
}

// scheduleFunctor submits an opaque functor, pocketing it when the
// pool is closed.
func (c *Crawler) scheduleFunctor(fn func()) {
	c.mu.Lock()
	p := c.workers
	c.mu.Unlock()
	if p == nil || p.Closed() {
		c.pocketFunctor(fn)
		return
	}
	if err := p.Submit(fn); err != nil {
		c.pocketFunctor(fn)
	}
}

func (c *Crawler) reportError(msg string) {
	if cb := c.OnException; cb != nil {
		cb(msg)
		return
	}
	c.logger.Error("crawl error", "error", msg)
}

// makeWorkerContext builds the by-value bundle handed to every action.
// Callbacks are snapshot here so swapping them on the Crawler does not
// affect in-flight work.
func (c *Crawler) makeWorkerContext(root *graph.LinkedTask) (WorkerCtx, error) {
	client, err := c.newClient()
	if err != nil {
		return WorkerCtx{}, err
	}
	return WorkerCtx{
		Client:              client,
		RootNode:            root,
		Ctx:                 c.runCtx,
		OnSingleNodeScanned: c.OnSingleNodeScanned,
		OnNodeListScanned:   c.OnNodeListScanned,
		OnLevelSpawned:      c.OnLevelSpawned,
		OnException:         c.exceptionSink(),
		ScheduleTask:        c.scheduleTask,
		ScheduleTaskPinned:  c.scheduleTaskPinned,
		ScheduleFunctor:     c.scheduleFunctor,
		GetThreadHandle: func() pool.DataHandle {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.workers.GetDataHandle()
		},
	}, nil
}

func (c *Crawler) exceptionSink() func(string) {
	if cb := c.OnException; cb != nil {
		return cb
	}
	logger := c.logger
	return func(msg string) { logger.Error("crawl error", "error", msg) }
}
