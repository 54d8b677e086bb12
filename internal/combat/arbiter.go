package combat

import (
	"time"

	"zombie-siege/internal/entity"
)

// KillScore is awarded to the player landing the lethal hit.
const KillScore = 100

// Outcome reports the effect of a resolved claim.
type Outcome struct {
	Verdict
	Zombie entity.Zombie
	Killed bool
	// Score is the attacker's total after a kill.
	Score int
}

// NPCHit reports zombie melee damage applied to a player.
type NPCHit struct {
	Player  entity.Player
	Applied bool
	Killed  bool
}

// Arbiter applies validated damage to the entity store.
type Arbiter struct {
	store  *entity.Store
	policy Policy
	now    func() time.Time
}

type Config struct {
	Policy Policy
	Now    func() time.Time
}

func NewArbiter(store *entity.Store, cfg Config) *Arbiter {
	if cfg.Policy == nil {
		cfg.Policy = NewDefaultPolicy()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Arbiter{store: store, policy: cfg.Policy, now: cfg.Now}
}

// ResolveZombieHit validates a claim and applies it. Lethal hits remove the
// zombie and credit the attacker.
func (a *Arbiter) ResolveZombieHit(claim Claim) Outcome {
	if claim.At.IsZero() {
		claim.At = a.now()
	}

	var subject Subject
	if p, ok := a.store.Player(claim.AttackerID); ok {
		subject.Attacker = &p
	}
	if z, ok := a.store.Zombie(claim.TargetID); ok {
		subject.Target = &z
	}

	verdict := a.policy.Evaluate(claim, subject)
	outcome := Outcome{Verdict: verdict}
	if subject.Target != nil {
		outcome.Zombie = *subject.Target
	}
	if !verdict.Accepted {
		return outcome
	}

	health, ok := a.store.DamageZombie(claim.TargetID, verdict.Damage)
	if !ok {
		outcome.Accepted = false
		outcome.Reason = ReasonMissingTarget
		return outcome
	}
	outcome.Zombie.Health = health
	if health > 0 {
		return outcome
	}

	a.store.RemoveZombie(claim.TargetID)
	outcome.Killed = true
	outcome.Score, _ = a.store.AddScore(claim.AttackerID, KillScore)
	return outcome
}

// ApplyNPCDamage applies zombie melee damage to a player.
func (a *Arbiter) ApplyNPCDamage(zombieID, playerID string, amount float64) NPCHit {
	if _, ok := a.store.Zombie(zombieID); !ok {
		return NPCHit{}
	}
	player, applied := a.store.DamagePlayer(playerID, amount)
	return NPCHit{Player: player, Applied: applied, Killed: applied && player.Dead}
}

// Forget releases per-attacker policy state when the policy keeps any.
func (a *Arbiter) Forget(attackerID string) {
	if f, ok := a.policy.(interface{ Forget(string) }); ok {
		f.Forget(attackerID)
	}
}
