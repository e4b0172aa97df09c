package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blinkenlichten/webgrep/internal/graph"
)

// SeedResult is the outcome of one seed crawl in a batch.
type SeedResult struct {
	// URL is the seed this crawl started from.
	URL string

	// Root is the finished crawl tree, nil when the seed never started.
	Root *graph.LinkedTask

	// Links is the number of child URLs spawned under this seed.
	Links uint32

	// Started reports whether the seed crawl was set in motion.
	Started bool
}

// BatchRunner crawls multiple seed URLs concurrently, one Crawler per
// seed, bounded by a concurrency limit.
type BatchRunner struct {
	// crawlerFactory builds a fresh Crawler per seed so no tree or pool
	// state leaks between crawls.
	crawlerFactory func() *Crawler

	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	results []SeedResult
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchConcurrency bounds how many seeds crawl at once. Default 4.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets the batch-level logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *BatchRunner) { b.logger = l }
}

// NewBatchRunner creates a BatchRunner. The factory is invoked once per
// seed.
func NewBatchRunner(crawlerFactory func() *Crawler, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		crawlerFactory: crawlerFactory,
		concurrency:    4,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run crawls every seed and returns one result per seed in input
// order. A failed seed yields a result with Started false rather than
// aborting the batch; the error return reports cancellation only.
func (b *BatchRunner) Run(ctx context.Context, seeds []string, grepRegex string, maxLinks, nThreads uint32) ([]SeedResult, error) {
	b.logger.Info("starting batch crawl", "seeds", len(seeds), "concurrency", b.concurrency)
	start := time.Now()

	b.results = make([]SeedResult, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("crawling seed", "url", seed, "index", i+1, "total", len(seeds))

			c := b.crawlerFactory()
			started := c.Start(seed, grepRegex, maxLinks, nThreads, false)
			if started {
				if err := c.WaitIdle(ctx); err != nil {
					c.Shutdown()
					return err
				}
			}
			c.Shutdown()

			res := SeedResult{URL: seed, Started: started}
			if started {
				res.Root = c.Root()
				res.Links = c.LinksCount()
			}
			b.mu.Lock()
			b.results[i] = res
			b.mu.Unlock()

			if !started {
				b.logger.Warn("seed crawl failed to start", "url", seed)
			}
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("batch crawl finished", "elapsed", time.Since(start))
	return b.results, err
}
