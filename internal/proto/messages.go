package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"zombie-siege/internal/entity"
)

// Client message type identifiers.
const (
	TypePlayerUpdate = "playerUpdate"
	TypeStartGame    = "startGame"
	TypeShoot        = "shoot"
	TypeZombieHit    = "zombieHit"
	TypeTakeDamage   = "takeDamage"
)

// Server message type identifiers.
const (
	TypeInitialize     = "initialize"
	TypePlayerJoined   = "playerJoined"
	TypePlayerUpdated  = "playerUpdated"
	TypePlayerLeft     = "playerLeft"
	TypePlayerShot     = "playerShot"
	TypeHealthUpdate   = "healthUpdate"
	TypePlayerDied     = "playerDied"
	TypeRespawn        = "respawn"
	TypeZombiesSpawned = "zombiesSpawned"
	TypeZombieUpdate   = "zombieUpdate"
	TypeZombieDied     = "zombieDied"
	TypeGameStarted    = "gameStarted"
	TypeGameReset      = "gameReset"
	TypeHostChanged    = "hostChanged"
	TypeScoreUpdate    = "scoreUpdate"
)

var (
	// ErrMalformed reports a frame that is not a valid envelope or payload.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType reports a well-formed envelope with an unrecognised type.
	ErrUnknownType = errors.New("unknown message type")
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PlayerUpdate is the partial state a client reports about itself. Absent
// fields stay nil and are not merged.
type PlayerUpdate struct {
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
	Z             *float64 `json:"z,omitempty"`
	RotationY     *float64 `json:"rotationY,omitempty"`
	RotationX     *float64 `json:"rotationX,omitempty"`
	CurrentWeapon *string  `json:"currentWeapon,omitempty"`
}

// Delta converts the update into a store delta.
func (u PlayerUpdate) Delta() entity.PlayerDelta {
	delta := entity.PlayerDelta{
		X:         u.X,
		Y:         u.Y,
		Z:         u.Z,
		RotationY: u.RotationY,
		RotationX: u.RotationX,
	}
	if u.CurrentWeapon != nil {
		weapon := entity.Weapon(*u.CurrentWeapon)
		delta.Weapon = &weapon
	}
	return delta
}

// Shoot announces that the client fired.
type Shoot struct {
	Weapon string `json:"weapon"`
}

// ZombieHit is a client's claim that one of its bullets hit a zombie.
type ZombieHit struct {
	ZombieID string  `json:"zombieId"`
	Damage   float64 `json:"damage"`
	Weapon   string  `json:"weapon,omitempty"`
}

// ClientMessage captures a decoded inbound frame. Only the payload matching
// Type is populated.
type ClientMessage struct {
	Type         string
	PlayerUpdate *PlayerUpdate
	Shoot        *Shoot
	ZombieHit    *ZombieHit
	Raw          json.RawMessage
}

// DecodeClientMessage parses a websocket text frame.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	msg := ClientMessage{Type: env.Type, Raw: env.Data}
	switch env.Type {
	case TypeStartGame, TypeTakeDamage:
		return msg, nil
	case TypePlayerUpdate:
		var update PlayerUpdate
		if err := decodeData(env, &update); err != nil {
			return msg, err
		}
		msg.PlayerUpdate = &update
	case TypeShoot:
		var shoot Shoot
		if err := decodeData(env, &shoot); err != nil {
			return msg, err
		}
		msg.Shoot = &shoot
	case TypeZombieHit:
		var hit ZombieHit
		if err := decodeData(env, &hit); err != nil {
			return msg, err
		}
		if hit.ZombieID == "" {
			return msg, fmt.Errorf("%w: %s without zombieId", ErrMalformed, env.Type)
		}
		msg.ZombieHit = &hit
	default:
		return msg, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return msg, nil
}

func decodeData(env envelope, dst any) error {
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: %s without data", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return nil
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Encode renders a server message envelope. A nil payload is sent as {}.
func Encode(msgType string, data any) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	payload, err := json.Marshal(outbound{Type: msgType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return payload, nil
}
