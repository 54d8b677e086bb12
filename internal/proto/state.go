package proto

import "zombie-siege/internal/entity"

// PlayerState is the wire form of a player.
type PlayerState struct {
	ID            string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	RotationY     float64 `json:"rotationY"`
	RotationX     float64 `json:"rotationX"`
	Health        float64 `json:"health"`
	CurrentWeapon string  `json:"currentWeapon"`
	Score         int     `json:"score"`
	Dead          bool    `json:"dead,omitempty"`
}

// ZombieState is the wire form of a zombie. TargetID is null when idle.
type ZombieState struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Health   float64 `json:"health"`
	TargetID *string `json:"targetId"`
	Speed    float64 `json:"speed"`
}

// Initialize is the first message every connection receives.
type Initialize struct {
	ID             string                 `json:"id"`
	Players        map[string]PlayerState `json:"players"`
	Zombies        map[string]ZombieState `json:"zombies"`
	GameInProgress bool                   `json:"gameInProgress"`
	IsHost         bool                   `json:"isHost"`
}

type PlayerLeft struct {
	ID string `json:"id"`
}

type PlayerShot struct {
	ShooterID string `json:"shooterId"`
	Weapon    string `json:"weapon"`
}

type HealthUpdate struct {
	ID     string  `json:"id"`
	Health float64 `json:"health"`
}

type PlayerDied struct {
	ID       string `json:"id"`
	KillerID string `json:"killerId,omitempty"`
}

type Respawn struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Health float64 `json:"health"`
}

type ZombieDied struct {
	ID       string `json:"id"`
	KillerID string `json:"killerId"`
	Score    int    `json:"score"`
}

type HostChanged struct {
	ID string `json:"id"`
}

type ScoreUpdate struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// FromPlayer converts a store record.
func FromPlayer(p entity.Player) PlayerState {
	return PlayerState{
		ID:            p.ID,
		X:             p.Position.X(),
		Y:             p.Position.Y(),
		Z:             p.Position.Z(),
		RotationY:     p.RotationY,
		RotationX:     p.RotationX,
		Health:        p.Health,
		CurrentWeapon: string(p.Weapon),
		Score:         p.Score,
		Dead:          p.Dead,
	}
}

// FromZombie converts a store record.
func FromZombie(z entity.Zombie) ZombieState {
	state := ZombieState{
		ID:     z.ID,
		X:      z.Position.X(),
		Y:      z.Position.Y(),
		Z:      z.Position.Z(),
		Health: z.Health,
		Speed:  z.Speed,
	}
	if z.TargetID != "" {
		target := z.TargetID
		state.TargetID = &target
	}
	return state
}

func PlayerMap(players map[string]entity.Player) map[string]PlayerState {
	out := make(map[string]PlayerState, len(players))
	for id, p := range players {
		out[id] = FromPlayer(p)
	}
	return out
}

// ZombieMap keys the given zombies by id, the shape used by zombiesSpawned
// and zombieUpdate.
func ZombieMap(zombies ...entity.Zombie) map[string]ZombieState {
	out := make(map[string]ZombieState, len(zombies))
	for _, z := range zombies {
		out[z.ID] = FromZombie(z)
	}
	return out
}

// NewRespawn builds the respawn payload from the refreshed player.
func NewRespawn(p entity.Player) Respawn {
	return Respawn{
		ID:     p.ID,
		X:      p.Position.X(),
		Y:      p.Position.Y(),
		Z:      p.Position.Z(),
		Health: p.Health,
	}
}
