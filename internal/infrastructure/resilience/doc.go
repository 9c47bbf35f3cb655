/*
Package resilience provides the circuit breaker that guards the pricer dependency.

# Overview

A single Breaker instance is created at startup and shared by every request
and every concurrent price lookup. It stops calling a failing dependency for
a cooldown period and lets callers substitute a fallback value instead.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Failures counted inside a rolling window
- Hard per-call timeout, counted as a failure
- Exactly one trial call while half-open
- Caller cancellation is not counted against the dependency
- State change callbacks for monitoring

# Usage

	breaker := resilience.New("pricer", resilience.Settings{
		MaxFailures:  3,
		ResetTimeout: 5 * time.Second,
		CallTimeout:  time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker transition", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	price := resilience.Run(ctx, breaker,
		func(ctx context.Context) (decimal.Decimal, error) { return source.PriceOf(ctx, name) },
		func(err error) decimal.Decimal { return decimal.Zero },
	)

# Pattern

	Closed --[MaxFailures in window]-> Open --[ResetTimeout]-> Half-Open --[trial ok]-> Closed
	                                                               |
	                                                        [trial failed]
	                                                               |
	                                                               v
	                                                             Open
*/
package resilience
