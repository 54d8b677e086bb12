package simulation

import (
	"context"
	"time"

	"zombie-siege/logging"
)

const (
	// EventTickSkipped is emitted when a tick fires while the previous one is
	// still running.
	EventTickSkipped logging.EventType = "simulation.tick_skipped"
	// EventTickBudgetExceeded is emitted when a tick takes longer than its slot.
	EventTickBudgetExceeded logging.EventType = "simulation.tick_budget_exceeded"
)

// TickBudgetPayload captures tick timing.
type TickBudgetPayload struct {
	DurationMillis float64 `json:"durationMs"`
	BudgetMillis   float64 `json:"budgetMs"`
	ClampedDelta   bool    `json:"clampedDelta,omitempty"`
}

// TickSkipped publishes a coalesced tick.
func TickSkipped(ctx context.Context, pub logging.Publisher, tick uint64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickSkipped,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
	})
}

// TickBudgetExceeded publishes an overrun tick.
func TickBudgetExceeded(ctx context.Context, pub logging.Publisher, tick uint64, duration, budget time.Duration, clamped bool) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetExceeded,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload: TickBudgetPayload{
			DurationMillis: float64(duration) / float64(time.Millisecond),
			BudgetMillis:   float64(budget) / float64(time.Millisecond),
			ClampedDelta:   clamped,
		},
	})
}
