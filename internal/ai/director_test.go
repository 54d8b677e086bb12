package ai

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"zombie-siege/internal/entity"
	"zombie-siege/internal/world"
)

type directorFixture struct {
	store    *entity.Store
	director *Director
	now      time.Time
}

func newDirectorFixture(t *testing.T, layout *world.Layout) *directorFixture {
	t.Helper()
	store := entity.NewStore(entity.Config{Rand: rand.New(rand.NewSource(3))})
	return &directorFixture{
		store:    store,
		director: NewDirector(store, Config{Layout: layout, Rand: rand.New(rand.NewSource(5))}),
		now:      time.Unix(1_000, 0),
	}
}

func (fx *directorFixture) player(id string, x, z float64) {
	fx.store.UpsertPlayer(entity.Player{ID: id, Position: mgl64.Vec3{x, 1.6, z}, Health: entity.MaxHealth, Weapon: entity.WeaponPistol})
}

func (fx *directorFixture) zombie(x, z float64) entity.Zombie {
	spawned := fx.store.SpawnZombies(1)[0]
	moved, _ := fx.store.MoveZombie(spawned.ID, mgl64.Vec3{x, 0.4, z}, "")
	return moved
}

func (fx *directorFixture) tick(dt float64) TickResult {
	result := fx.director.Tick(fx.now, dt)
	fx.now = fx.now.Add(time.Duration(dt * float64(time.Second)))
	return result
}

func TestZombieIgnoresPlayersOutsideAggroRadius(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(30, 0)

	result := fx.tick(0.1)
	if len(result.Moved) != 0 || len(result.Attacks) != 0 {
		t.Fatalf("expected idle zombie, got %+v", result)
	}
	if b, _ := fx.director.Blackboard(z.ID); b.State != StateIdle || b.Aggro {
		t.Fatalf("expected idle blackboard, got %+v", b)
	}
}

func TestZombiePursuesAtScaledSpeed(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(10, 0)

	result := fx.tick(0.1)
	if len(result.Moved) != 1 {
		t.Fatalf("expected one moved zombie, got %d", len(result.Moved))
	}
	moved := result.Moved[0]
	want := 10 - z.Speed*DefaultSpeedScale*0.1
	if math.Abs(moved.Position.X()-want) > 1e-9 || moved.Position.Z() != 0 {
		t.Fatalf("expected x=%v, got %v", want, moved.Position)
	}
	if moved.Position.Y() != 0.4 {
		t.Fatalf("expected height to stay 0.4, got %v", moved.Position.Y())
	}
	if moved.TargetID != "p1" {
		t.Fatalf("expected target p1, got %q", moved.TargetID)
	}
}

func TestAggroIsSticky(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(10, 0)
	fx.tick(0.1)

	fx.player("p1", -25, 0)
	result := fx.tick(0.1)
	if len(result.Moved) != 1 || result.Moved[0].TargetID != "p1" {
		t.Fatalf("expected zombie to keep chasing, got %+v", result.Moved)
	}
	if b, _ := fx.director.Blackboard(z.ID); b.State != StatePursuing {
		t.Fatalf("expected pursuing, got %v", b.State)
	}
}

func TestZombieAttacksOnIntervalWithoutMoving(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(1, 0)

	result := fx.tick(0.5)
	if len(result.Attacks) != 1 || result.Attacks[0].PlayerID != "p1" || result.Attacks[0].Damage != DefaultAttackDamage {
		t.Fatalf("expected one attack on p1, got %+v", result.Attacks)
	}
	if len(result.Moved) != 1 || result.Moved[0].Position != z.Position {
		t.Fatalf("expected only a target change, got %+v", result.Moved)
	}

	result = fx.tick(0.5)
	if len(result.Attacks) != 0 || len(result.Moved) != 0 {
		t.Fatalf("expected cooldown, got %+v", result)
	}
	result = fx.tick(0.5)
	if len(result.Attacks) != 1 {
		t.Fatalf("expected second attack after interval, got %+v", result.Attacks)
	}
	if b, _ := fx.director.Blackboard(z.ID); b.State != StateAttacking {
		t.Fatalf("expected attacking, got %v", b.State)
	}
}

func TestProvokeLocksOnAttacker(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("near", 5, 0)
	fx.player("far", -40, 0)
	z := fx.zombie(10, 0)

	fx.director.Provoke(z.ID, "far")
	result := fx.tick(0.1)
	if len(result.Moved) != 1 || result.Moved[0].TargetID != "far" {
		t.Fatalf("expected lock on far, got %+v", result.Moved)
	}
	if result.Moved[0].Position.X() >= 10 {
		t.Fatalf("expected zombie to head toward far, got %v", result.Moved[0].Position)
	}

	fx.store.DamagePlayer("far", entity.MaxHealth)
	result = fx.tick(0.1)
	if len(result.Moved) != 1 || result.Moved[0].TargetID != "near" {
		t.Fatalf("expected lock to release once the attacker died, got %+v", result.Moved)
	}
}

func TestZombieDropsTargetWhenNoPlayerAlive(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(5, 0)
	fx.tick(0.1)

	fx.store.DamagePlayer("p1", entity.MaxHealth)
	result := fx.tick(0.1)
	if len(result.Moved) != 1 || result.Moved[0].TargetID != "" {
		t.Fatalf("expected target to clear, got %+v", result.Moved)
	}
	if b, _ := fx.director.Blackboard(z.ID); b.State != StateIdle {
		t.Fatalf("expected idle, got %v", b.State)
	}
}

func TestZombieDetoursWhenLineOfSightBlocked(t *testing.T) {
	layout := world.NewLayout([]world.Box{{X: 5, Z: 0, Width: 2, Depth: 6}})
	fx := newDirectorFixture(t, layout)
	fx.player("p1", 0, 0)
	z := fx.zombie(10, 0)

	result := fx.tick(0.1)
	if len(result.Moved) != 1 {
		t.Fatalf("expected zombie to move, got %+v", result)
	}
	moved := result.Moved[0].Position
	if moved.X() != 10 {
		t.Fatalf("expected sideways detour, got %v", moved)
	}
	want := z.Speed * DefaultSpeedScale * 0.1 * DefaultDetourFactor
	if math.Abs(math.Abs(moved.Z())-want) > 1e-9 {
		t.Fatalf("expected detour stride %v, got %v", want, moved.Z())
	}
}

func TestTickPrunesRemovedZombies(t *testing.T) {
	fx := newDirectorFixture(t, nil)
	fx.player("p1", 0, 0)
	z := fx.zombie(5, 0)
	fx.tick(0.1)

	fx.store.RemoveZombie(z.ID)
	fx.tick(0.1)
	if _, ok := fx.director.Blackboard(z.ID); ok {
		t.Fatalf("expected blackboard to be dropped")
	}
}
