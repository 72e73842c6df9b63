package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// spiderNames gives workers stable, readable identities in logs.
// Genus names, because they are spiders. Pools larger than the list
// fall back to numbered names.
var spiderNames = []string{
	"argiope", "araneus", "lycosa", "salticus",
	"pholcus", "nephila", "tegenaria", "theridion",
	"dolomedes", "misumena", "oxyopes", "thomisus",
	"gasteracantha", "heteropoda", "hogna", "kukulcania",
	"latrodectus", "loxosceles", "micrommata", "nuctenea",
	"peucetia", "phidippus", "pisaura", "scytodes",
	"segestria", "steatoda", "uloborus", "zygiella",
	"agelena", "atrax", "badumna", "ctenus",
}

// SpiderName returns the log name for worker i.
func SpiderName(i int) string {
	if i < len(spiderNames) {
		return spiderNames[i]
	}
	return fmt.Sprintf("spider-%d", i+1)
}

// launchStagger spaces worker starts so a fresh node does not slam the
// frontier (and the Tor proxy) with simultaneous first claims.
const launchStagger = time.Second

// Pool runs a set of spiders concurrently and stops them together.
//
// Design decision: One errgroup over independent workers rather than a
// shared work channel because claiming already serializes through the
// store; a channel would only add a second queue in front of the real
// one.
type Pool struct {
	newSpider func(name string) *Spider
	workers   int
	logger    *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the pool size. Zero or negative selects the default
// of twice the CPU count, which keeps cores busy while most workers sit
// in Tor latency.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a pool that builds each worker through newSpider,
// which receives the worker's name.
func NewPool(newSpider func(name string) *Spider, opts ...PoolOption) *Pool {
	p := &Pool{
		newSpider: newSpider,
		workers:   2 * runtime.NumCPU(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the configured pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run launches the workers and blocks until all have stopped. The first
// worker error cancels the rest; a clean shutdown (context canceled or
// sleep file) returns nil.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("starting spider pool", "workers", p.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		spider := p.newSpider(SpiderName(i))
		g.Go(func() error {
			return spider.Run(ctx)
		})

		if i < p.workers-1 {
			select {
			case <-ctx.Done():
			case <-time.After(launchStagger):
			}
		}
	}

	err := g.Wait()
	p.logger.Info("spider pool stopped")
	return err
}
