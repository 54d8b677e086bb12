package lifecycle

import (
	"context"

	"zombie-siege/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins the room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a player leaves the room.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventHostChanged is emitted when host status moves to another session.
	EventHostChanged logging.EventType = "lifecycle.host_changed"
	// EventGameStarted is emitted when the host starts the game.
	EventGameStarted logging.EventType = "lifecycle.game_started"
	// EventGameReset is emitted when the host leaves and the game is torn down.
	EventGameReset logging.EventType = "lifecycle.game_reset"
	// EventStartRejected is emitted when a startGame request is ignored.
	EventStartRejected logging.EventType = "lifecycle.start_rejected"
	// EventPlayerRespawned is emitted when a dead player is brought back.
	EventPlayerRespawned logging.EventType = "lifecycle.player_respawned"
)

// PlayerJoinedPayload captures spawn metadata for a new player.
type PlayerJoinedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
	SpawnZ float64 `json:"spawnZ"`
	IsHost bool    `json:"isHost"`
}

// PlayerDisconnectedPayload captures why a player left.
type PlayerDisconnectedPayload struct {
	Reason  string `json:"reason"`
	WasHost bool   `json:"wasHost"`
}

// HostChangedPayload names the previous host, if any.
type HostChangedPayload struct {
	Previous string `json:"previous,omitempty"`
}

// GameStartedPayload records the initial spawn batch.
type GameStartedPayload struct {
	Zombies int `json:"zombies"`
}

// GameResetPayload records what the hard reset discarded.
type GameResetPayload struct {
	ZombiesCleared int `json:"zombiesCleared"`
}

// StartRejectedPayload explains why a startGame request was ignored.
type StartRejectedPayload struct {
	Reason string `json:"reason"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerJoinedPayload) {
	publish(ctx, pub, EventPlayerJoined, logging.SeverityInfo, actor, payload)
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PlayerDisconnectedPayload) {
	publish(ctx, pub, EventPlayerDisconnected, logging.SeverityInfo, actor, payload)
}

// HostChanged publishes the new host.
func HostChanged(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload HostChangedPayload) {
	publish(ctx, pub, EventHostChanged, logging.SeverityInfo, actor, payload)
}

// GameStarted publishes a game start triggered by actor.
func GameStarted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload GameStartedPayload) {
	publish(ctx, pub, EventGameStarted, logging.SeverityInfo, actor, payload)
}

// GameReset publishes a hard reset caused by actor leaving.
func GameReset(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload GameResetPayload) {
	publish(ctx, pub, EventGameReset, logging.SeverityWarn, actor, payload)
}

// StartRejected publishes an ignored startGame request.
func StartRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload StartRejectedPayload) {
	publish(ctx, pub, EventStartRejected, logging.SeverityInfo, actor, payload)
}

// PlayerRespawned publishes a respawn.
func PlayerRespawned(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	publish(ctx, pub, EventPlayerRespawned, logging.SeverityInfo, actor, nil)
}
