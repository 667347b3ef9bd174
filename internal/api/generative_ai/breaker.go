package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

// BreakerGenerator stops calling a failing provider for OpenTimeout after
// MaxFailures consecutive errors. While open, calls fail fast with
// gobreaker.ErrOpenState.
type BreakerGenerator struct {
	next DayPlanGenerator
	cb   *gobreaker.CircuitBreaker
}

var _ DayPlanGenerator = (*BreakerGenerator)(nil)

func NewBreakerGenerator(next DayPlanGenerator, maxFailures uint32, openTimeout time.Duration, logger *slog.Logger) *BreakerGenerator {
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "day-plan-generator",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &BreakerGenerator{next: next, cb: cb}
}

func (b *BreakerGenerator) GenerateDayPlans(ctx context.Context, destination string, dayCount, travellerCount int) ([]types.GeneratedDay, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateDayPlans(ctx, destination, dayCount, travellerCount)
	})
	if err != nil {
		return nil, err
	}
	days, ok := v.([]types.GeneratedDay)
	if !ok {
		return nil, fmt.Errorf("unexpected generator result %T", v)
	}
	return days, nil
}

// State reports the current breaker state.
func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}
