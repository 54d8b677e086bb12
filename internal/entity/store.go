// Package entity is the authoritative registry of players and zombies.
package entity

import (
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"

	"zombie-siege/internal/world"
)

var (
	playerComponent = donburi.NewComponentType[Player]()
	zombieComponent = donburi.NewComponentType[Zombie]()
)

const (
	minZombieSpeed = 0.5
	maxZombieSpeed = 1.5
)

// Config tunes a Store.
type Config struct {
	Layout *world.Layout
	Rand   *rand.Rand
}

// Store keeps every entity in a donburi world indexed by id. Each method is
// atomic: callers never observe a partially applied update.
type Store struct {
	mu         sync.RWMutex
	world      donburi.World
	players    map[string]donburi.Entity
	zombies    map[string]donburi.Entity
	nextZombie uint64
	layout     *world.Layout
	rng        *rand.Rand
}

// NewStore builds an empty store.
func NewStore(cfg Config) *Store {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{
		world:   donburi.NewWorld(),
		players: make(map[string]donburi.Entity),
		zombies: make(map[string]donburi.Entity),
		layout:  cfg.Layout,
		rng:     rng,
	}
}

func (s *Store) playerLocked(id string) (*Player, bool) {
	entity, ok := s.players[id]
	if !ok || !s.world.Valid(entity) {
		return nil, false
	}
	return playerComponent.Get(s.world.Entry(entity)), true
}

func (s *Store) zombieLocked(id string) (*Zombie, bool) {
	entity, ok := s.zombies[id]
	if !ok || !s.world.Valid(entity) {
		return nil, false
	}
	return zombieComponent.Get(s.world.Entry(entity)), true
}

// SpawnPlayer creates a player with full health at a random spawn point.
func (s *Store) SpawnPlayer(id string) Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Player{
		ID:       id,
		Position: s.layout.SpawnPoint(world.PlayerSpawn, s.rng),
		Health:   MaxHealth,
		Weapon:   WeaponPistol,
	}
	s.upsertPlayerLocked(p)
	return p
}

// UpsertPlayer inserts or replaces a player record.
func (s *Store) UpsertPlayer(p Player) Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Health = clampHealth(p.Health)
	if !p.Weapon.Valid() {
		p.Weapon = WeaponPistol
	}
	s.upsertPlayerLocked(p)
	return p
}

func (s *Store) upsertPlayerLocked(p Player) {
	if existing, ok := s.playerLocked(p.ID); ok {
		*existing = p
		return
	}
	entity := s.world.Create(playerComponent)
	playerComponent.Set(s.world.Entry(entity), &p)
	s.players[p.ID] = entity
}

// RemovePlayer deletes the player and clears every zombie target pointing at
// it. It reports whether the player existed.
func (s *Store) RemovePlayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.players[id]
	if !ok {
		return false
	}
	delete(s.players, id)
	if s.world.Valid(entity) {
		s.world.Remove(entity)
	}
	for _, zEntity := range s.zombies {
		if !s.world.Valid(zEntity) {
			continue
		}
		z := zombieComponent.Get(s.world.Entry(zEntity))
		if z.TargetID == id {
			z.TargetID = ""
		}
	}
	return true
}

// Player returns a copy of the player record.
func (s *Store) Player(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.playerLocked(id)
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players lists every player ordered by id.
func (s *Store) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Player, 0, len(s.players))
	for id := range s.players {
		if p, ok := s.playerLocked(id); ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApplyPlayerDelta merges the provided fields into the player record. Fields
// absent from the delta, and an invalid weapon, keep their current value.
func (s *Store) ApplyPlayerDelta(id string, delta PlayerDelta) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.playerLocked(id)
	if !ok {
		return Player{}, false
	}
	if delta.X != nil {
		p.Position[0] = *delta.X
	}
	if delta.Y != nil {
		p.Position[1] = *delta.Y
	}
	if delta.Z != nil {
		p.Position[2] = *delta.Z
	}
	if delta.RotationY != nil {
		p.RotationY = *delta.RotationY
	}
	if delta.RotationX != nil {
		p.RotationX = *delta.RotationX
	}
	if delta.Weapon != nil && delta.Weapon.Valid() {
		p.Weapon = *delta.Weapon
	}
	return *p, true
}

// DamagePlayer lowers a living player's health, marking them dead at zero.
// applied is false for unknown or already dead players.
func (s *Store) DamagePlayer(id string, amount float64) (p Player, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.playerLocked(id)
	if !ok {
		return Player{}, false
	}
	if !current.Alive() || amount <= 0 {
		return *current, false
	}
	current.Health = clampHealth(current.Health - amount)
	if current.Health == 0 {
		current.Dead = true
	}
	return *current, true
}

// RespawnPlayer restores a player to full health at a fresh spawn point.
func (s *Store) RespawnPlayer(id string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.playerLocked(id)
	if !ok {
		return Player{}, false
	}
	p.Health = MaxHealth
	p.Dead = false
	p.Position = s.layout.SpawnPoint(world.PlayerSpawn, s.rng)
	return *p, true
}

// AddScore credits points to a player and returns the new total.
func (s *Store) AddScore(id string, points int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.playerLocked(id)
	if !ok {
		return 0, false
	}
	p.Score += points
	return p.Score, true
}

// SpawnZombies creates count zombies with sequential ids from a counter that
// is never rewound except by Reset(true).
func (s *Store) SpawnZombies(count int) []Zombie {
	s.mu.Lock()
	defer s.mu.Unlock()

	spawned := make([]Zombie, 0, max(count, 0))
	for i := 0; i < count; i++ {
		serial := s.nextZombie
		s.nextZombie++
		z := Zombie{
			ID:       zombieIDPrefix + strconv.FormatUint(serial, 10),
			Position: s.layout.SpawnPoint(world.ZombieSpawn, s.rng),
			Health:   MaxHealth,
			Speed:    minZombieSpeed + s.rng.Float64()*(maxZombieSpeed-minZombieSpeed),
			serial:   serial,
		}
		entity := s.world.Create(zombieComponent)
		zombieComponent.Set(s.world.Entry(entity), &z)
		s.zombies[z.ID] = entity
		spawned = append(spawned, z)
	}
	return spawned
}

// Zombie returns a copy of the zombie record.
func (s *Store) Zombie(id string) (Zombie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zombieLocked(id)
	if !ok {
		return Zombie{}, false
	}
	return *z, true
}

// Zombies lists every zombie in spawn order.
func (s *Store) Zombies() []Zombie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zombiesLocked()
}

func (s *Store) zombiesLocked() []Zombie {
	out := make([]Zombie, 0, len(s.zombies))
	for id := range s.zombies {
		if z, ok := s.zombieLocked(id); ok {
			out = append(out, *z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].serial < out[j].serial })
	return out
}

// ZombieCount reports how many zombies are alive.
func (s *Store) ZombieCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.zombies)
}

// DamageZombie lowers a zombie's health and returns the result. The zombie is
// left in the store at zero health; RemoveZombie takes it out.
func (s *Store) DamageZombie(id string, amount float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zombieLocked(id)
	if !ok {
		return 0, false
	}
	if amount > 0 {
		z.Health = clampHealth(z.Health - amount)
	}
	return z.Health, true
}

// MoveZombie updates position and target in one step.
func (s *Store) MoveZombie(id string, position mgl64.Vec3, targetID string) (Zombie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zombieLocked(id)
	if !ok {
		return Zombie{}, false
	}
	if targetID != "" {
		if _, connected := s.players[targetID]; !connected {
			targetID = ""
		}
	}
	z.Position = position
	z.TargetID = targetID
	return *z, true
}

// RemoveZombie deletes the zombie. Removing an absent zombie is a no-op that
// reports false.
func (s *Store) RemoveZombie(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.zombies[id]
	if !ok {
		return false
	}
	delete(s.zombies, id)
	if s.world.Valid(entity) {
		s.world.Remove(entity)
	}
	return true
}

// Reset removes every zombie and returns how many were cleared. clearIDs
// rewinds the id counter so the next batch starts at zombie_0 again.
func (s *Store) Reset(clearIDs bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := len(s.zombies)
	for id, entity := range s.zombies {
		if s.world.Valid(entity) {
			s.world.Remove(entity)
		}
		delete(s.zombies, id)
	}
	if clearIDs {
		s.nextZombie = 0
	}
	return cleared
}

// Snapshot copies every entity under a single lock so the result is
// consistent.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Players: make(map[string]Player, len(s.players)),
		Zombies: make(map[string]Zombie, len(s.zombies)),
	}
	for id := range s.players {
		if p, ok := s.playerLocked(id); ok {
			snap.Players[id] = *p
		}
	}
	for id := range s.zombies {
		if z, ok := s.zombieLocked(id); ok {
			snap.Zombies[id] = *z
		}
	}
	return snap
}
