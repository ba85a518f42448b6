// Package feedguard protects the orchestrator from misbehaving optional
// collaborators: a circuit breaker around the realized-price and
// order-book-quality sources, and a token-bucket limiter bounding how
// often a caller may force a filter re-seed.
package feedguard

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// RealizedPriceSource is the optional collaborator providing a single
// scalar realized price per tick.
type RealizedPriceSource interface {
	RealizedPrice(ctx context.Context) (float64, error)
}

// OrderBookQualitySource is the optional collaborator providing a
// per-venue order-book quality snapshot. Venues it omits default to 1.0.
type OrderBookQualitySource interface {
	OrderBookQuality(ctx context.Context) (map[string]float64, error)
}

// Guard wraps the optional collaborator calls in circuit breakers and rate
// limits re-init requests. A tripped breaker degrades the corresponding
// input to "absent" rather than failing the tick.
type Guard struct {
	priceBreaker   *gobreaker.CircuitBreaker
	qualityBreaker *gobreaker.CircuitBreaker
	reseedLimiter  *rate.Limiter
}

// New builds a Guard with conservative defaults: breakers trip after 5
// consecutive failures and probe again after 30s; re-seed is limited to
// once every 10 seconds with a burst of 1.
func New() *Guard {
	breakerSettings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}
	}
	return &Guard{
		priceBreaker:   gobreaker.NewCircuitBreaker(breakerSettings("realized-price")),
		qualityBreaker: gobreaker.NewCircuitBreaker(breakerSettings("orderbook-quality")),
		reseedLimiter:  rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// RealizedPrice calls src through the price breaker. It returns ok=false
// when src is nil, the breaker is open, or the call errors. All three are
// treated as "absent" by the orchestrator, never as a tick failure.
func (g *Guard) RealizedPrice(ctx context.Context, src RealizedPriceSource) (float64, bool) {
	if src == nil {
		return 0, false
	}
	v, err := g.priceBreaker.Execute(func() (interface{}, error) {
		return src.RealizedPrice(ctx)
	})
	if err != nil {
		return 0, false
	}
	return v.(float64), true
}

// OrderBookQuality calls src through the quality breaker, returning nil
// when src is nil, the breaker is open, or the call errors.
func (g *Guard) OrderBookQuality(ctx context.Context, src OrderBookQualitySource) map[string]float64 {
	if src == nil {
		return nil
	}
	v, err := g.qualityBreaker.Execute(func() (interface{}, error) {
		return src.OrderBookQuality(ctx)
	})
	if err != nil {
		return nil
	}
	return v.(map[string]float64)
}

// AllowReseed reports whether a re-init call may proceed now, consuming
// one token from the limiter if so.
func (g *Guard) AllowReseed() bool {
	return g.reseedLimiter.Allow()
}
