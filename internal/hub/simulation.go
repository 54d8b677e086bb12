package hub

import (
	"context"
	"time"

	"zombie-siege/internal/proto"
	"zombie-siege/internal/sim"
	"zombie-siege/logging"
	logcombat "zombie-siege/logging/combat"
	"zombie-siege/logging/lifecycle"
	"zombie-siege/logging/simulation"
)

// Tick advances the AI by dt seconds and broadcasts what changed.
func (h *Hub) Tick(tick uint64, now time.Time, dt float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tick = tick
	if h.store.ZombieCount() == 0 {
		return
	}

	result := h.director.Tick(now, dt)
	if len(result.Moved) > 0 {
		h.broadcastLocked(proto.TypeZombieUpdate, proto.ZombieMap(result.Moved...), "")
	}
	for _, attack := range result.Attacks {
		hit := h.arbiter.ApplyNPCDamage(attack.ZombieID, attack.PlayerID, attack.Damage)
		if !hit.Applied {
			continue
		}
		logcombat.Damage(context.Background(), h.publisher, tick, logging.ZombieRef(attack.ZombieID), logging.PlayerRef(attack.PlayerID), logcombat.DamagePayload{
			Amount:       attack.Damage,
			TargetHealth: hit.Player.Health,
		})
		h.broadcastLocked(proto.TypeHealthUpdate, proto.HealthUpdate{ID: attack.PlayerID, Health: hit.Player.Health}, "")
		if hit.Killed {
			h.playerDiedLocked(attack.PlayerID, attack.ZombieID)
		}
	}
}

func (h *Hub) playerDiedLocked(id, killerID string) {
	h.metrics.Add(CounterPlayersDied, 1)
	h.broadcastLocked(proto.TypePlayerDied, proto.PlayerDied{ID: id, KillerID: killerID}, "")
	logcombat.Defeat(context.Background(), h.publisher, h.tick, logging.ZombieRef(killerID), logging.PlayerRef(id), logcombat.DefeatPayload{})

	if timer, ok := h.respawns[id]; ok {
		timer.Stop()
	}
	h.respawns[id] = h.schedule(h.respawnDelay, func() { h.respawn(id) })
}

// respawn restores a dead player. It does nothing when the player left or
// is already alive.
func (h *Hub) respawn(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.respawns, id)
	if _, ok := h.registry.Get(id); !ok {
		return
	}
	current, ok := h.store.Player(id)
	if !ok || !current.Dead {
		return
	}
	player, ok := h.store.RespawnPlayer(id)
	if !ok {
		return
	}
	h.broadcastLocked(proto.TypeRespawn, proto.NewRespawn(player), "")
	lifecycle.PlayerRespawned(context.Background(), h.publisher, logging.PlayerRef(id))
}

// RunSimulation ticks the hub at the configured rate until ctx is done.
func (h *Hub) RunSimulation(ctx context.Context) {
	loop := sim.NewLoop(sim.LoopConfig{TickRate: h.tickRate, Clock: h.clock}, sim.LoopHooks{
		Step: func(tc sim.TickContext) {
			h.Tick(tc.Tick, tc.Now, tc.Delta)
		},
		AfterStep: func(result sim.StepResult) {
			if result.Duration > result.Budget {
				simulation.TickBudgetExceeded(ctx, h.publisher, result.Tick, result.Duration, result.Budget, result.ClampedDelta)
			}
		},
		OnSkip: func(tick uint64) {
			h.metrics.Add(CounterTicksSkipped, 1)
			simulation.TickSkipped(ctx, h.publisher, tick)
		},
	})
	loop.Run(ctx)
}
