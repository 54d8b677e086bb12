package combat

import (
	"sync"
	"time"

	"zombie-siege/internal/entity"
)

const (
	// RangeTolerance scales a weapon's range to absorb position latency.
	RangeTolerance = 1.25
	// HitRadius approximates the zombie's body when measuring distance.
	HitRadius = 1.0
	// FireJitter is the share of the fire interval a client must respect.
	FireJitter = 0.8
)

// Reason identifies why a claim was rejected.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnknownAttacker Reason = "unknown_attacker"
	ReasonAttackerDead    Reason = "attacker_dead"
	ReasonMissingTarget   Reason = "missing_target"
	ReasonTargetDead      Reason = "target_dead"
	ReasonUnknownWeapon   Reason = "unknown_weapon"
	ReasonInvalidDamage   Reason = "invalid_damage"
	ReasonOutOfRange      Reason = "out_of_range"
	ReasonRateLimited     Reason = "rate_limited"
)

// Claim is a client's assertion that it hit a zombie.
type Claim struct {
	AttackerID    string
	TargetID      string
	Weapon        entity.Weapon
	ClaimedDamage float64
	At            time.Time
}

// Subject holds the server's view of both parties at the time of the claim.
// Nil pointers mean the entity is unknown.
type Subject struct {
	Attacker *entity.Player
	Target   *entity.Zombie
}

// Verdict is a policy decision. Damage is the amount to apply when accepted.
type Verdict struct {
	Accepted bool
	Reason   Reason
	Damage   float64
	Distance float64
}

// Policy validates hit claims.
type Policy interface {
	Evaluate(claim Claim, subject Subject) Verdict
}

// PolicyFunc adapts a function into a Policy.
type PolicyFunc func(claim Claim, subject Subject) Verdict

func (f PolicyFunc) Evaluate(claim Claim, subject Subject) Verdict {
	return f(claim, subject)
}

type fireWindow struct {
	shotAt time.Time
	hits   int
}

// DefaultPolicy checks liveness, weapon numbers, range and fire rate.
type DefaultPolicy struct {
	mu      sync.Mutex
	windows map[string]fireWindow
}

func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{windows: make(map[string]fireWindow)}
}

func reject(reason Reason, distance float64) Verdict {
	return Verdict{Reason: reason, Distance: distance}
}

// Evaluate implements Policy. Only accepted claims consume fire rate budget.
func (p *DefaultPolicy) Evaluate(claim Claim, subject Subject) Verdict {
	if subject.Attacker == nil {
		return reject(ReasonUnknownAttacker, 0)
	}
	if !subject.Attacker.Alive() {
		return reject(ReasonAttackerDead, 0)
	}
	if subject.Target == nil {
		return reject(ReasonMissingTarget, 0)
	}
	if subject.Target.Health <= 0 {
		return reject(ReasonTargetDead, 0)
	}
	spec, ok := LookupWeapon(claim.Weapon)
	if !ok {
		return reject(ReasonUnknownWeapon, 0)
	}
	if claim.ClaimedDamage < 0 || claim.ClaimedDamage > spec.Damage {
		return reject(ReasonInvalidDamage, 0)
	}

	distance := subject.Attacker.Position.Sub(subject.Target.Position).Len()
	if distance > spec.Range*RangeTolerance+HitRadius {
		return reject(ReasonOutOfRange, distance)
	}

	if !p.admit(claim.AttackerID, spec, claim.At) {
		return reject(ReasonRateLimited, distance)
	}
	return Verdict{Accepted: true, Damage: spec.Damage, Distance: distance}
}

func (p *DefaultPolicy) admit(attackerID string, spec WeaponSpec, at time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.windows == nil {
		p.windows = make(map[string]fireWindow)
	}
	minInterval := time.Duration(float64(spec.FireInterval) * FireJitter)
	window, seen := p.windows[attackerID]
	if !seen || at.Sub(window.shotAt) >= minInterval {
		p.windows[attackerID] = fireWindow{shotAt: at, hits: 1}
		return true
	}
	pellets := spec.Pellets
	if pellets < 1 {
		pellets = 1
	}
	if window.hits >= pellets {
		return false
	}
	window.hits++
	p.windows[attackerID] = window
	return true
}

// Forget drops fire rate history for a departed attacker.
func (p *DefaultPolicy) Forget(attackerID string) {
	p.mu.Lock()
	delete(p.windows, attackerID)
	p.mu.Unlock()
}
