package hub

import (
	"context"
	"errors"

	"zombie-siege/internal/combat"
	"zombie-siege/internal/entity"
	"zombie-siege/internal/proto"
	"zombie-siege/logging"
	logcombat "zombie-siege/logging/combat"
	"zombie-siege/logging/lifecycle"
	"zombie-siege/logging/network"
)

// Reasons a startGame request is ignored.
const (
	StartRejectNotHost        = "not_host"
	StartRejectAlreadyStarted = "already_started"
)

// HandleMessage decodes one inbound frame from id and applies it. Bad frames
// are dropped and logged; the connection is never closed from here.
func (h *Hub) HandleMessage(id string, payload []byte) {
	msg, err := proto.DecodeClientMessage(payload)
	if err != nil {
		key := CounterMessagesMalformed
		if errors.Is(err, proto.ErrUnknownType) {
			key = CounterMessagesUnknown
		}
		h.metrics.Add(key, 1)
		network.MalformedMessage(context.Background(), h.publisher, logging.PlayerRef(id), network.MalformedPayload{
			Type:  msg.Type,
			Error: err.Error(),
		})
		h.logger.Printf("discarding message from %s: %v", id, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.registry.Get(id); !ok {
		h.logger.Printf("%s from unknown session %s ignored", msg.Type, id)
		return
	}

	switch msg.Type {
	case proto.TypePlayerUpdate:
		h.handlePlayerUpdateLocked(id, *msg.PlayerUpdate)
	case proto.TypeStartGame:
		h.handleStartGameLocked(id)
	case proto.TypeShoot:
		h.handleShootLocked(id, *msg.Shoot)
	case proto.TypeZombieHit:
		h.handleZombieHitLocked(id, *msg.ZombieHit)
	case proto.TypeTakeDamage:
		// Player versus player damage is disabled.
		h.logger.Printf("takeDamage from %s ignored", id)
	}
}

func (h *Hub) handlePlayerUpdateLocked(id string, update proto.PlayerUpdate) {
	delta := update.Delta()
	if delta.Weapon != nil && !delta.Weapon.Valid() {
		h.logger.Printf("player %s sent unknown weapon %q", id, *delta.Weapon)
		delta.Weapon = nil
	}
	if delta.Empty() {
		return
	}
	player, ok := h.store.ApplyPlayerDelta(id, delta)
	if !ok {
		return
	}
	h.broadcastLocked(proto.TypePlayerUpdated, proto.FromPlayer(player), id)
}

func (h *Hub) handleStartGameLocked(id string) {
	reason := ""
	switch {
	case !h.registry.IsHost(id):
		reason = StartRejectNotHost
	case h.gameInProgress:
		reason = StartRejectAlreadyStarted
	}
	if reason != "" {
		h.metrics.Add(CounterStartRejected, 1)
		lifecycle.StartRejected(context.Background(), h.publisher, logging.PlayerRef(id), lifecycle.StartRejectedPayload{Reason: reason})
		h.logger.Printf("startGame from %s ignored: %s", id, reason)
		return
	}

	h.gameInProgress = true
	zombies := h.store.SpawnZombies(h.batchSize)
	h.broadcastLocked(proto.TypeGameStarted, nil, "")
	h.broadcastLocked(proto.TypeZombiesSpawned, proto.ZombieMap(zombies...), "")
	lifecycle.GameStarted(context.Background(), h.publisher, logging.PlayerRef(id), lifecycle.GameStartedPayload{Zombies: len(zombies)})
	h.logger.Printf("game started by %s with %d zombies", id, len(zombies))
}

func (h *Hub) handleShootLocked(id string, shot proto.Shoot) {
	weapon := shot.Weapon
	if weapon == "" {
		if p, ok := h.store.Player(id); ok {
			weapon = string(p.Weapon)
		}
	}
	h.broadcastLocked(proto.TypePlayerShot, proto.PlayerShot{ShooterID: id, Weapon: weapon}, id)
}

func (h *Hub) handleZombieHitLocked(id string, hit proto.ZombieHit) {
	weapon := entity.Weapon(hit.Weapon)
	if weapon == "" {
		if p, ok := h.store.Player(id); ok {
			weapon = p.Weapon
		}
	}

	outcome := h.arbiter.ResolveZombieHit(combat.Claim{
		AttackerID:    id,
		TargetID:      hit.ZombieID,
		Weapon:        weapon,
		ClaimedDamage: hit.Damage,
		At:            h.clock.Now(),
	})
	actor := logging.PlayerRef(id)
	target := logging.ZombieRef(hit.ZombieID)
	if !outcome.Accepted {
		h.metrics.Add(CounterHitsRejected, 1)
		logcombat.HitRejected(context.Background(), h.publisher, h.tick, actor, target, logcombat.HitRejectedPayload{
			Weapon:        string(weapon),
			ClaimedDamage: hit.Damage,
			Reason:        string(outcome.Reason),
			Distance:      outcome.Distance,
		})
		return
	}

	h.metrics.Add(CounterHitsAccepted, 1)
	logcombat.Damage(context.Background(), h.publisher, h.tick, actor, target, logcombat.DamagePayload{
		Weapon:       string(weapon),
		Amount:       outcome.Damage,
		TargetHealth: outcome.Zombie.Health,
	})

	if !outcome.Killed {
		h.director.Provoke(hit.ZombieID, id)
		h.broadcastLocked(proto.TypeZombieUpdate, proto.ZombieMap(outcome.Zombie), "")
		return
	}

	h.director.Forget(hit.ZombieID)
	h.metrics.Add(CounterZombiesKilled, 1)
	h.broadcastLocked(proto.TypeZombieDied, proto.ZombieDied{ID: hit.ZombieID, KillerID: id, Score: outcome.Score}, "")
	h.broadcastLocked(proto.TypeScoreUpdate, proto.ScoreUpdate{ID: id, Score: outcome.Score}, "")
	logcombat.Defeat(context.Background(), h.publisher, h.tick, actor, target, logcombat.DefeatPayload{
		Weapon: string(weapon),
		Score:  outcome.Score,
	})
}
