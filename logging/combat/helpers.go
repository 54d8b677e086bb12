package combat

import (
	"context"

	"zombie-siege/logging"
)

const (
	// EventDamage is emitted when a hit or melee attack lowers a target's health.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when a target's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
	// EventHitRejected is emitted when a client hit claim fails arbitration.
	EventHitRejected logging.EventType = "combat.hit_rejected"
)

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	Weapon       string  `json:"weapon,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

// DefeatPayload describes the fatal blow.
type DefeatPayload struct {
	Weapon string `json:"weapon,omitempty"`
	Score  int    `json:"score,omitempty"`
}

// HitRejectedPayload describes why a claim was dropped.
type HitRejectedPayload struct {
	Weapon        string  `json:"weapon,omitempty"`
	ClaimedDamage float64 `json:"claimedDamage"`
	Reason        string  `json:"reason"`
	Distance      float64 `json:"distance,omitempty"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Defeat publishes a combat defeat event for the eliminated target.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DefeatPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// HitRejected publishes a dropped hit claim.
func HitRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload HitRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHitRejected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
