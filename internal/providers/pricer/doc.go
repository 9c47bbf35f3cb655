// Package pricer is the gateway to the pricer service.
//
// Every lookup goes through the single pricer circuit breaker. Open
// circuits, call timeouts and pricer errors all end as an unavailable
// result, so a broken pricer degrades a response instead of failing it.
//
// Example Usage:
//
//	source := pricer.NewHTTPSource(httpClient, discovery.KubernetesEnv{}, "pricer-service")
//	gw := pricer.NewGateway(source, breaker, logger).WithMetrics(metrics)
//	result := gw.GetPrice(ctx, shopping.Item{Name: "coffee", Quantity: 2})
package pricer
