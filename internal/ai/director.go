// Package ai drives zombie pursuit and melee each simulation tick.
package ai

import (
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"zombie-siege/internal/entity"
	"zombie-siege/internal/world"
)

// State is a zombie's behaviour phase.
type State uint8

const (
	StateIdle State = iota
	StatePursuing
	StateAttacking
)

func (s State) String() string {
	switch s {
	case StatePursuing:
		return "pursuing"
	case StateAttacking:
		return "attacking"
	default:
		return "idle"
	}
}

// Config tunes the director. Zero values fall back to the defaults below.
type Config struct {
	AggroRadius    float64
	MeleeRange     float64
	SpeedScale     float64
	DetourFactor   float64
	AttackDamage   float64
	AttackInterval time.Duration
	Layout         *world.Layout
	Rand           *rand.Rand
}

const (
	DefaultAggroRadius    = 20.0
	DefaultMeleeRange     = 2.0
	DefaultSpeedScale     = 2.0
	DefaultDetourFactor   = 0.8
	DefaultAttackDamage   = 10.0
	DefaultAttackInterval = time.Second
)

func (c Config) withDefaults() Config {
	if c.AggroRadius <= 0 {
		c.AggroRadius = DefaultAggroRadius
	}
	if c.MeleeRange <= 0 {
		c.MeleeRange = DefaultMeleeRange
	}
	if c.SpeedScale <= 0 {
		c.SpeedScale = DefaultSpeedScale
	}
	if c.DetourFactor <= 0 {
		c.DetourFactor = DefaultDetourFactor
	}
	if c.AttackDamage <= 0 {
		c.AttackDamage = DefaultAttackDamage
	}
	if c.AttackInterval <= 0 {
		c.AttackInterval = DefaultAttackInterval
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Blackboard is the per-zombie memory kept between ticks.
type Blackboard struct {
	State      State
	Aggro      bool
	LockedOn   string
	LastAttack time.Time
	// DetourSign picks the side of the perpendicular while line of sight is
	// blocked; zero means no detour is in progress.
	DetourSign float64
}

// Attack is a melee strike the caller should apply.
type Attack struct {
	ZombieID string
	PlayerID string
	Damage   float64
}

// TickResult lists what changed during a tick.
type TickResult struct {
	// Moved holds zombies whose position or target changed.
	Moved   []entity.Zombie
	Attacks []Attack
}

// Director owns zombie AI memory and moves zombies in the store.
type Director struct {
	mu     sync.Mutex
	cfg    Config
	store  *entity.Store
	boards map[string]*Blackboard
}

func NewDirector(store *entity.Store, cfg Config) *Director {
	return &Director{
		cfg:    cfg.withDefaults(),
		store:  store,
		boards: make(map[string]*Blackboard),
	}
}

func (d *Director) board(zombieID string) *Blackboard {
	b, ok := d.boards[zombieID]
	if !ok {
		b = &Blackboard{}
		d.boards[zombieID] = b
	}
	return b
}

// Provoke makes the zombie aggressive and locks it on to the attacker.
func (d *Director) Provoke(zombieID, attackerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.board(zombieID)
	b.Aggro = true
	b.LockedOn = attackerID
}

// Forget drops a zombie's memory.
func (d *Director) Forget(zombieID string) {
	d.mu.Lock()
	delete(d.boards, zombieID)
	d.mu.Unlock()
}

// ForgetPlayer releases every lock held on the player.
func (d *Director) ForgetPlayer(playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.boards {
		if b.LockedOn == playerID {
			b.LockedOn = ""
		}
	}
}

// Reset clears all memory.
func (d *Director) Reset() {
	d.mu.Lock()
	d.boards = make(map[string]*Blackboard)
	d.mu.Unlock()
}

// Blackboard returns a copy of the zombie's memory.
func (d *Director) Blackboard(zombieID string) (Blackboard, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.boards[zombieID]
	if !ok {
		return Blackboard{}, false
	}
	return *b, true
}

func ground(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

func groundDistance(a, b mgl64.Vec3) float64 {
	return ground(b).Sub(ground(a)).Len()
}

// Tick advances every zombie by dt seconds.
func (d *Director) Tick(now time.Time, dt float64) TickResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	var living []entity.Player
	for _, p := range d.store.Players() {
		if p.Alive() {
			living = append(living, p)
		}
	}

	var result TickResult
	zombies := d.store.Zombies()
	seen := make(map[string]struct{}, len(zombies))
	for _, z := range zombies {
		seen[z.ID] = struct{}{}
		b := d.board(z.ID)
		target, found := d.selectTarget(z, b, living)

		position := z.Position
		targetID := ""
		switch {
		case !found:
			b.State = StateIdle
			b.DetourSign = 0
		case groundDistance(z.Position, target.Position) <= d.cfg.MeleeRange:
			b.State = StateAttacking
			b.DetourSign = 0
			targetID = target.ID
			if b.LastAttack.IsZero() || now.Sub(b.LastAttack) >= d.cfg.AttackInterval {
				b.LastAttack = now
				result.Attacks = append(result.Attacks, Attack{ZombieID: z.ID, PlayerID: target.ID, Damage: d.cfg.AttackDamage})
			}
		default:
			b.State = StatePursuing
			targetID = target.ID
			position = d.step(z, b, target.Position, dt)
		}

		if position == z.Position && targetID == z.TargetID {
			continue
		}
		if moved, ok := d.store.MoveZombie(z.ID, position, targetID); ok {
			result.Moved = append(result.Moved, moved)
		}
	}

	for id := range d.boards {
		if _, ok := seen[id]; !ok {
			delete(d.boards, id)
		}
	}
	return result
}

func (d *Director) selectTarget(z entity.Zombie, b *Blackboard, living []entity.Player) (entity.Player, bool) {
	if b.LockedOn != "" {
		for _, p := range living {
			if p.ID == b.LockedOn {
				return p, true
			}
		}
		b.LockedOn = ""
	}

	var nearest entity.Player
	best := -1.0
	for _, p := range living {
		dist := groundDistance(z.Position, p.Position)
		if best < 0 || dist < best {
			nearest, best = p, dist
		}
	}
	if best < 0 {
		return entity.Player{}, false
	}
	if !b.Aggro && best > d.cfg.AggroRadius {
		return entity.Player{}, false
	}
	b.Aggro = true
	return nearest, true
}

func (d *Director) step(z entity.Zombie, b *Blackboard, target mgl64.Vec3, dt float64) mgl64.Vec3 {
	toTarget := ground(target).Sub(ground(z.Position))
	dist := toTarget.Len()
	if dist == 0 {
		return z.Position
	}
	dir := toTarget.Mul(1 / dist)
	stride := z.Speed * d.cfg.SpeedScale * dt

	if d.cfg.Layout.LineOfSight(z.Position, target) {
		b.DetourSign = 0
		if stride > dist-d.cfg.MeleeRange/2 {
			stride = max(dist-d.cfg.MeleeRange/2, 0)
		}
	} else {
		if b.DetourSign == 0 {
			b.DetourSign = 1
			if d.cfg.Rand.Float64() < 0.5 {
				b.DetourSign = -1
			}
		}
		dir = mgl64.Vec3{-dir.Z(), 0, dir.X()}.Mul(b.DetourSign)
		stride *= d.cfg.DetourFactor
	}

	next := z.Position.Add(dir.Mul(stride))
	if d.cfg.Layout.Blocked(next, 0) {
		b.DetourSign = -b.DetourSign
		return z.Position
	}
	return next
}
