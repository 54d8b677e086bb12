package entity

import "github.com/go-gl/mathgl/mgl64"

const (
	// MaxHealth caps both players and zombies.
	MaxHealth = 100.0

	zombieIDPrefix = "zombie_"
)

// Weapon names the player's equipped gun.
type Weapon string

const (
	WeaponPistol     Weapon = "pistol"
	WeaponShotgun    Weapon = "shotgun"
	WeaponMachineGun Weapon = "machineGun"
)

// Valid reports whether w is one of the known weapons.
func (w Weapon) Valid() bool {
	switch w {
	case WeaponPistol, WeaponShotgun, WeaponMachineGun:
		return true
	default:
		return false
	}
}

// Player is the authoritative record for a connected client.
type Player struct {
	ID        string
	Position  mgl64.Vec3
	RotationY float64
	RotationX float64
	Health    float64
	Weapon    Weapon
	Score     int
	Dead      bool
}

// Alive reports whether the player can act and be targeted.
func (p Player) Alive() bool {
	return !p.Dead && p.Health > 0
}

// Zombie is the authoritative record for a server-spawned NPC.
type Zombie struct {
	ID       string
	Position mgl64.Vec3
	Health   float64
	TargetID string
	Speed    float64

	serial uint64
}

// PlayerDelta carries a partial player update; nil fields are left untouched.
type PlayerDelta struct {
	X         *float64
	Y         *float64
	Z         *float64
	RotationY *float64
	RotationX *float64
	Weapon    *Weapon
}

// Empty reports whether the delta would change nothing.
func (d PlayerDelta) Empty() bool {
	return d.X == nil && d.Y == nil && d.Z == nil && d.RotationY == nil && d.RotationX == nil && d.Weapon == nil
}

// Snapshot is a point-in-time copy of every entity.
type Snapshot struct {
	Players map[string]Player
	Zombies map[string]Zombie
}

func clampHealth(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > MaxHealth {
		return MaxHealth
	}
	return value
}
