// Package shopping holds the shopping list domain: items, price results and
// the Aggregator that prices a list concurrently.
//
// Components:
//   - Item, PriceResult, Line: the data model and its wire form
//   - Aggregator: fan-out of one lookup per item on a bounded worker pool
//   - Sequence: completion-ordered results plus an end-of-stream error
//
// Emission order follows completion order, not list order, so the fastest
// lookups reach the caller first.
//
// Example Usage:
//
//	agg := shopping.NewAggregator(pricerGateway, 32)
//	seq := agg.Enrich(ctx, items)
//	for result := range seq.Results() {
//		write(result.Line())
//	}
//	if err := seq.Err(); err != nil {
//		// internal failure or caller went away
//	}
package shopping
