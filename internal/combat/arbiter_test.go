package combat

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"zombie-siege/internal/entity"
)

type arbiterFixture struct {
	store   *entity.Store
	arbiter *Arbiter
	now     time.Time
}

func newArbiterFixture(t *testing.T) *arbiterFixture {
	t.Helper()
	store := entity.NewStore(entity.Config{Rand: rand.New(rand.NewSource(7))})
	store.UpsertPlayer(entity.Player{ID: "p1", Position: mgl64.Vec3{0, 1.6, 0}, Health: 100, Weapon: entity.WeaponPistol})
	store.SpawnZombies(1)
	store.MoveZombie("zombie_0", mgl64.Vec3{10, 0.4, 0}, "")

	fx := &arbiterFixture{store: store, now: time.Unix(100, 0)}
	fx.arbiter = NewArbiter(store, Config{Now: func() time.Time { return fx.now }})
	return fx
}

func (fx *arbiterFixture) hit(weapon entity.Weapon, damage float64) Outcome {
	return fx.arbiter.ResolveZombieHit(Claim{
		AttackerID:    "p1",
		TargetID:      "zombie_0",
		Weapon:        weapon,
		ClaimedDamage: damage,
	})
}

func TestResolveZombieHitAppliesWeaponDamage(t *testing.T) {
	fx := newArbiterFixture(t)

	outcome := fx.hit(entity.WeaponPistol, 20)
	if !outcome.Accepted {
		t.Fatalf("expected hit to be accepted, got %q", outcome.Reason)
	}
	if outcome.Zombie.Health != 75 {
		t.Fatalf("expected weapon damage 25 to leave 75, got %v", outcome.Zombie.Health)
	}
	if z, _ := fx.store.Zombie("zombie_0"); z.Health != 75 {
		t.Fatalf("expected store health 75, got %v", z.Health)
	}
}

func TestResolveZombieHitRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(fx *arbiterFixture) Claim
		reason Reason
	}{
		{
			name: "unknown attacker",
			mutate: func(fx *arbiterFixture) Claim {
				return Claim{AttackerID: "ghost", TargetID: "zombie_0", Weapon: entity.WeaponPistol, ClaimedDamage: 25}
			},
			reason: ReasonUnknownAttacker,
		},
		{
			name: "dead attacker",
			mutate: func(fx *arbiterFixture) Claim {
				fx.store.DamagePlayer("p1", 100)
				return Claim{AttackerID: "p1", TargetID: "zombie_0", Weapon: entity.WeaponPistol, ClaimedDamage: 25}
			},
			reason: ReasonAttackerDead,
		},
		{
			name: "missing target",
			mutate: func(fx *arbiterFixture) Claim {
				return Claim{AttackerID: "p1", TargetID: "zombie_9", Weapon: entity.WeaponPistol, ClaimedDamage: 25}
			},
			reason: ReasonMissingTarget,
		},
		{
			name: "unknown weapon",
			mutate: func(fx *arbiterFixture) Claim {
				return Claim{AttackerID: "p1", TargetID: "zombie_0", Weapon: "railgun", ClaimedDamage: 25}
			},
			reason: ReasonUnknownWeapon,
		},
		{
			name: "inflated damage",
			mutate: func(fx *arbiterFixture) Claim {
				return Claim{AttackerID: "p1", TargetID: "zombie_0", Weapon: entity.WeaponPistol, ClaimedDamage: 999}
			},
			reason: ReasonInvalidDamage,
		},
		{
			name: "out of range",
			mutate: func(fx *arbiterFixture) Claim {
				fx.store.MoveZombie("zombie_0", mgl64.Vec3{60, 0.4, 0}, "")
				return Claim{AttackerID: "p1", TargetID: "zombie_0", Weapon: entity.WeaponShotgun, ClaimedDamage: 15}
			},
			reason: ReasonOutOfRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newArbiterFixture(t)
			outcome := fx.arbiter.ResolveZombieHit(tc.mutate(fx))
			if outcome.Accepted {
				t.Fatalf("expected rejection")
			}
			if outcome.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, outcome.Reason)
			}
			if z, ok := fx.store.Zombie("zombie_0"); ok && z.Health != entity.MaxHealth {
				t.Fatalf("expected health untouched, got %v", z.Health)
			}
		})
	}
}

func TestResolveZombieHitRateLimit(t *testing.T) {
	fx := newArbiterFixture(t)

	if !fx.hit(entity.WeaponPistol, 25).Accepted {
		t.Fatalf("expected first shot to be accepted")
	}
	fx.now = fx.now.Add(100 * time.Millisecond)
	if outcome := fx.hit(entity.WeaponPistol, 25); outcome.Accepted || outcome.Reason != ReasonRateLimited {
		t.Fatalf("expected rate limit, got %+v", outcome.Verdict)
	}
	fx.now = fx.now.Add(350 * time.Millisecond)
	if !fx.hit(entity.WeaponPistol, 25).Accepted {
		t.Fatalf("expected shot within jitter allowance to be accepted")
	}
}

func TestResolveZombieHitShotgunPellets(t *testing.T) {
	fx := newArbiterFixture(t)
	fx.store.SpawnZombies(1)
	fx.store.MoveZombie("zombie_1", mgl64.Vec3{5, 0.4, 0}, "")

	for i := 0; i < 5; i++ {
		claim := Claim{AttackerID: "p1", TargetID: "zombie_1", Weapon: entity.WeaponShotgun, ClaimedDamage: 15}
		if outcome := fx.arbiter.ResolveZombieHit(claim); !outcome.Accepted {
			t.Fatalf("expected pellet %d to be accepted, got %q", i, outcome.Reason)
		}
	}
	claim := Claim{AttackerID: "p1", TargetID: "zombie_1", Weapon: entity.WeaponShotgun, ClaimedDamage: 15}
	if outcome := fx.arbiter.ResolveZombieHit(claim); outcome.Reason != ReasonRateLimited {
		t.Fatalf("expected sixth pellet to be rate limited, got %+v", outcome.Verdict)
	}
	if z, _ := fx.store.Zombie("zombie_1"); z.Health != 25 {
		t.Fatalf("expected 5 pellets of 15 to leave 25, got %v", z.Health)
	}
}

func TestResolveZombieHitKillRemovesZombieAndScores(t *testing.T) {
	fx := newArbiterFixture(t)

	var last Outcome
	for i := 0; i < 4; i++ {
		last = fx.hit(entity.WeaponPistol, 25)
		if !last.Accepted {
			t.Fatalf("expected hit %d to be accepted, got %q", i, last.Reason)
		}
		fx.now = fx.now.Add(time.Second)
	}
	if !last.Killed {
		t.Fatalf("expected fourth pistol hit to kill")
	}
	if last.Zombie.Health != 0 {
		t.Fatalf("expected health 0, got %v", last.Zombie.Health)
	}
	if last.Score != KillScore {
		t.Fatalf("expected score %d, got %d", KillScore, last.Score)
	}
	if _, ok := fx.store.Zombie("zombie_0"); ok {
		t.Fatalf("expected zombie to be removed")
	}

	if outcome := fx.hit(entity.WeaponPistol, 25); outcome.Reason != ReasonMissingTarget {
		t.Fatalf("expected follow-up hit to miss, got %+v", outcome.Verdict)
	}
}

func TestArbiterUsesCustomPolicy(t *testing.T) {
	store := entity.NewStore(entity.Config{})
	store.SpawnPlayer("p1")
	store.SpawnZombies(1)
	arbiter := NewArbiter(store, Config{Policy: PolicyFunc(func(Claim, Subject) Verdict {
		return Verdict{Accepted: true, Damage: 100}
	})})

	outcome := arbiter.ResolveZombieHit(Claim{AttackerID: "p1", TargetID: "zombie_0"})
	if !outcome.Killed {
		t.Fatalf("expected custom policy to one-shot, got %+v", outcome)
	}
}

func TestApplyNPCDamage(t *testing.T) {
	fx := newArbiterFixture(t)

	hit := fx.arbiter.ApplyNPCDamage("zombie_0", "p1", 10)
	if !hit.Applied || hit.Player.Health != 90 {
		t.Fatalf("expected 90 health, got %+v", hit)
	}
	hit = fx.arbiter.ApplyNPCDamage("zombie_0", "p1", 500)
	if !hit.Killed || hit.Player.Health != 0 {
		t.Fatalf("expected lethal hit, got %+v", hit)
	}
	hit = fx.arbiter.ApplyNPCDamage("zombie_0", "p1", 10)
	if hit.Applied {
		t.Fatalf("expected dead player to ignore damage")
	}
	if hit := fx.arbiter.ApplyNPCDamage("zombie_7", "p1", 10); hit.Applied {
		t.Fatalf("expected unknown zombie to deal no damage")
	}
}
