package crawler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/blinkenlichten/webgrep/internal/fetch"
	"github.com/blinkenlichten/webgrep/internal/graph"
	"github.com/blinkenlichten/webgrep/internal/pool"
)

// Action is one unit of per-node work. It returns whether the node can
// proceed to the next stage.
type Action func(node *graph.LinkedTask, w *WorkerCtx) bool

// WorkerCtx is the by-value bundle handed to every action. Each task
// execution receives its own copy with a cloned HTTP client, so actions
// may mutate the context freely.
type WorkerCtx struct {
	Client   *fetch.Client
	RootNode *graph.LinkedTask
	HostPort string
	Ctx      context.Context

	OnSingleNodeScanned Callback
	OnNodeListScanned   Callback
	OnLevelSpawned      Callback
	OnException         func(msg string)

	ScheduleTask       func(LonelyTask)
	ScheduleTaskPinned func(pool.DataHandle, LonelyTask)
	ScheduleFunctor    func(func())
	GetThreadHandle    func() pool.DataHandle
}

// LonelyTask is a structured job: a target node bound to an action and
// a context snapshot taken at scheduling time. The name refers to its
// second life in the pocket, where tasks wait out a stopped pool.
type LonelyTask struct {
	Target *graph.LinkedTask
	Action Action
	Ctx    WorkerCtx
}

// RunTask implements pool.TaskRunner. The action gets a fresh context
// copy with its own client, and a panic is converted into an exception
// report so the worker survives.
func (t LonelyTask) RunTask() {
	ctx := t.Ctx
	if ctx.Client != nil {
		ctx.Client = ctx.Client.Clone()
	}
	defer func() {
		if r := recover(); r != nil && ctx.OnException != nil {
			ctx.OnException(fmt.Sprintf("task panic: %v", r))
		}
	}()
	t.Action(t.Target, &ctx)
}

// ScheduleBranchExec schedules action for node and every sibling after
// the first skip nodes. With spray each node becomes an independent
// pool job; without it the whole branch is serialized onto one worker.
//
// Returns the number of nodes scheduled.
func (w *WorkerCtx) ScheduleBranchExec(node *graph.LinkedTask, action Action, skip int, spray bool) int {
	if node == nil || action == nil {
		return 0
	}
	var handle pool.DataHandle
	if !spray && w.GetThreadHandle != nil {
		handle = w.GetThreadHandle()
	}

	count := 0
	for item := node; item != nil; item = item.Next() {
		if skip > 0 {
			skip--
			continue
		}
		task := LonelyTask{Target: item, Action: action, Ctx: *w}
		if spray {
			w.ScheduleTask(task)
		} else {
			w.ScheduleTaskPinned(handle, task)
		}
		count++
	}
	return count
}

// ScheduleBranchExecFunctor is ScheduleBranchExec for arbitrary
// functors: fn is submitted once per visited node as an independent
// pool job.
func (w *WorkerCtx) ScheduleBranchExecFunctor(node *graph.LinkedTask, fn func(*graph.LinkedTask), skip int) int {
	if node == nil || fn == nil {
		return 0
	}
	count := 0
	for item := node; item != nil; item = item.Next() {
		if skip > 0 {
			skip--
			continue
		}
		item := item
		w.ScheduleFunctor(func() { fn(item) })
		count++
	}
	return count
}

// DownloadOne fetches the node's target URL and publishes the page.
// A node whose page is already in place is left alone. Transport
// failures are reported and leave the node not-ready with response
// code 0.
func DownloadOne(node *graph.LinkedTask, w *WorkerCtx) bool {
	g := &node.GrepVars
	if g.PageIsReady() {
		return true
	}
	if w.Client == nil {
		reportTo(w, fmt.Sprintf("no http client for %q", g.TargetURL))
		return false
	}

	hostPort, err := w.Client.Connect(w.Ctx, g.TargetURL)
	if err != nil {
		reportTo(w, fmt.Sprintf("connect %q: %v", g.TargetURL, err))
		return false
	}
	w.HostPort = hostPort
	g.Scheme = graph.SchemeOf(w.Client.Scheme())

	resp, err := w.Client.IssueRequest(w.Ctx, http.MethodGet, g.TargetURL)
	if err != nil {
		reportTo(w, fmt.Sprintf("fetch %q: %v", g.TargetURL, err))
		return false
	}

	g.ResponseCode = resp.StatusCode
	g.PageContent = resp.Body
	g.PublishPageReady()
	return true
}

// GrepOne downloads the node's page if needed, then records the URL
// and text match offsets and publishes the parsed state. Non-2xx
// responses parse like any other page and simply yield fewer matches.
func GrepOne(node *graph.LinkedTask, w *WorkerCtx) bool {
	g := &node.GrepVars
	if !g.PageIsReady() && !DownloadOne(node, w) {
		return false
	}
	if g.PageIsParsed() {
		return true
	}

	g.MatchURLVector = ExtractURLSpans(g.PageContent)
	if g.GrepExpr != nil {
		for _, m := range g.GrepExpr.FindAllStringIndex(g.PageContent, -1) {
			g.MatchTextVector = append(g.MatchTextVector, graph.MatchRange{Begin: m[0], End: m[1]})
		}
	}
	g.PublishPageParsed()

	if w.OnSingleNodeScanned != nil {
		w.OnSingleNodeScanned(node.Root(), node)
	}
	return true
}

// DownloadGrepRecursive is the per-node pipeline: grep the page, spawn
// a child chain from its URL matches, and schedule the same action for
// every spawned child through the pool. Recursion always goes through
// the pool, never the call stack.
//
// When the link budget is overshot the action returns without side
// effects.
func DownloadGrepRecursive(node *graph.LinkedTask, w *WorkerCtx) bool {
	if node == nil {
		return false
	}
	if node.LinksCounter != nil && node.MaxLinksCount != nil &&
		node.LinksCounter.Load() > node.MaxLinksCount.Load() {
		return true
	}

	ok := GrepOne(node, w)

	if head := chainHead(node); head != nil && graph.ScanAttemptFinished(head) {
		if w.OnNodeListScanned != nil {
			w.OnNodeListScanned(node.Root(), head)
		}
	}
	if !ok {
		return false
	}

	child, expelled := node.SpawnChildNode()
	graph.DeleteList(expelled)
	if child == nil {
		return true
	}
	spawned := child.SpawnGreppedSubtasks(w.HostPort, &node.GrepVars, 0)
	if spawned == 0 {
		node.AbandonChild()
		return true
	}

	if w.OnLevelSpawned != nil {
		w.OnLevelSpawned(node.Root(), child)
	}
	w.ScheduleBranchExec(child, DownloadGrepRecursive, 0, true)
	return true
}

// chainHead returns the first node of the sibling chain node belongs
// to: the parent's child slot when it is on node's level, otherwise
// node itself.
func chainHead(node *graph.LinkedTask) *graph.LinkedTask {
	p := node.Parent()
	if p == nil {
		return node
	}
	if h := p.Child(); h != nil && h.Level == node.Level {
		return h
	}
	return node
}

func reportTo(w *WorkerCtx, msg string) {
	if w.OnException != nil {
		w.OnException(msg)
	}
}
