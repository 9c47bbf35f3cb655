package shopping

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pricer prices a single item. Implementations never fail: a missing price
// is reported as an Unavailable result.
type Pricer interface {
	GetPrice(ctx context.Context, item Item) PriceResult
}

// Aggregator fans out one price lookup per item and emits results in
// completion order
type Aggregator struct {
	pricer  Pricer
	workers int
}

// NewAggregator creates an aggregator running at most workers lookups at a
// time. workers <= 0 runs every lookup of a list at once.
func NewAggregator(pricer Pricer, workers int) *Aggregator {
	return &Aggregator{
		pricer:  pricer,
		workers: workers,
	}
}

// Sequence is the lazy, single-use stream of results for one list.
type Sequence struct {
	results chan PriceResult
	total   int
	err     error // written before results is closed
}

// Results yields one PriceResult per item as lookups resolve. The channel
// is closed once every launched lookup has resolved.
func (s *Sequence) Results() <-chan PriceResult {
	return s.results
}

// Len returns the number of items being priced
func (s *Sequence) Len() int {
	return s.total
}

// Err reports why the sequence ended early. Only valid after Results is
// closed; nil means every item produced exactly one result.
func (s *Sequence) Err() error {
	return s.err
}

// Enrich starts pricing items. The caller must either drain Results or
// cancel ctx; cancelling abandons the lookups still in flight.
func (a *Aggregator) Enrich(ctx context.Context, items []Item) *Sequence {
	seq := &Sequence{
		results: make(chan PriceResult),
		total:   len(items),
	}

	if len(items) == 0 {
		close(seq.results)
		return seq
	}

	go a.run(ctx, seq, items)
	return seq
}

func (a *Aggregator) run(ctx context.Context, seq *Sequence, items []Item) {
	var emitted int64

	g, gctx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}

		item := item
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: pricing %q panicked: %v", ErrEnrichment, item.Name, r)
				}
			}()

			// A slot may free up only after the caller went away.
			if err := gctx.Err(); err != nil {
				return err
			}

			result := a.pricer.GetPrice(gctx, item)

			select {
			case seq.results <- result:
				atomic.AddInt64(&emitted, 1)
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	if atomic.LoadInt64(&emitted) == int64(len(items)) {
		err = nil
	} else if err == nil {
		err = ctx.Err()
	}

	seq.err = err
	close(seq.results)
}

// ListSource returns the current shopping list
type ListSource interface {
	FetchList(ctx context.Context) ([]Item, error)
}
