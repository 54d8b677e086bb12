package hub

import "zombie-siege/internal/session"

// Diagnostics is the payload served on /diagnostics.
type Diagnostics struct {
	Sessions       []session.Session `json:"sessions"`
	Host           string            `json:"host,omitempty"`
	GameInProgress bool              `json:"gameInProgress"`
	Players        int               `json:"players"`
	Zombies        int               `json:"zombies"`
	Tick           uint64            `json:"tick"`
	Counters       map[string]uint64 `json:"counters"`
}

// DiagnosticsSnapshot reports the hub's current state.
func (h *Hub) DiagnosticsSnapshot() Diagnostics {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.store.Snapshot()
	diag := Diagnostics{
		Sessions:       h.registry.Sessions(),
		GameInProgress: h.gameInProgress,
		Players:        len(snap.Players),
		Zombies:        len(snap.Zombies),
		Tick:           h.tick,
		Counters:       h.metrics.Snapshot(),
	}
	if host, ok := h.registry.Host(); ok {
		diag.Host = host.ID
	}
	return diag
}
