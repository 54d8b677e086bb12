// Package hub serialises every gameplay mutation behind one lock and fans
// the results out to connected sessions.
package hub

import (
	"context"
	"sort"
	"sync"
	"time"

	"zombie-siege/internal/ai"
	"zombie-siege/internal/combat"
	"zombie-siege/internal/entity"
	"zombie-siege/internal/proto"
	"zombie-siege/internal/session"
	"zombie-siege/internal/telemetry"
	"zombie-siege/internal/world"
	"zombie-siege/logging"
	"zombie-siege/logging/lifecycle"
	"zombie-siege/logging/network"
)

const (
	DefaultZombieBatchSize = 10
	DefaultRespawnDelay    = 3 * time.Second
	DefaultTickRate        = 10
)

// Counter keys reported through diagnostics.
const (
	CounterMessagesMalformed = "messages_malformed"
	CounterMessagesUnknown   = "messages_unknown"
	CounterStartRejected     = "start_rejected"
	CounterHitsAccepted      = "hits_accepted"
	CounterHitsRejected      = "hits_rejected"
	CounterZombiesKilled     = "zombies_killed"
	CounterPlayersDied       = "players_died"
	CounterSendDropped       = "send_dropped"
	CounterTicksSkipped      = "ticks_skipped"
	CounterGameResets        = "game_resets"
)

// Sender is a session's outbound queue. Send must not block; it reports
// false when the message was dropped.
type Sender interface {
	Send(payload []byte) bool
	Close()
}

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

func defaultScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config wires a Hub. Nil collaborators are replaced with in-memory defaults.
type Config struct {
	Registry        session.Registry
	Store           *entity.Store
	Director        *ai.Director
	Arbiter         *combat.Arbiter
	Layout          *world.Layout
	ZombieBatchSize int
	RespawnDelay    time.Duration
	TickRate        int
	Logger          telemetry.Logger
	Publisher       logging.Publisher
	Metrics         *telemetry.Counters
	Clock           logging.Clock
	Schedule        Scheduler
}

// Hub owns the registry, store, AI memory and game flag.
type Hub struct {
	mu             sync.Mutex
	registry       session.Registry
	store          *entity.Store
	director       *ai.Director
	arbiter        *combat.Arbiter
	subscribers    map[string]Sender
	respawns       map[string]Timer
	gameInProgress bool
	tick           uint64

	batchSize    int
	respawnDelay time.Duration
	tickRate     int
	logger       telemetry.Logger
	publisher    logging.Publisher
	metrics      *telemetry.Counters
	clock        logging.Clock
	schedule     Scheduler
	dropCounts   map[string]uint64
}

func New(cfg Config) *Hub {
	if cfg.Layout == nil {
		cfg.Layout = world.DefaultLayout()
	}
	if cfg.Registry == nil {
		cfg.Registry = session.NewRegistry(session.Config{})
	}
	if cfg.Store == nil {
		cfg.Store = entity.NewStore(entity.Config{Layout: cfg.Layout})
	}
	if cfg.Director == nil {
		cfg.Director = ai.NewDirector(cfg.Store, ai.Config{Layout: cfg.Layout})
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Arbiter == nil {
		cfg.Arbiter = combat.NewArbiter(cfg.Store, combat.Config{Now: cfg.Clock.Now})
	}
	if cfg.ZombieBatchSize <= 0 {
		cfg.ZombieBatchSize = DefaultZombieBatchSize
	}
	if cfg.RespawnDelay <= 0 {
		cfg.RespawnDelay = DefaultRespawnDelay
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.DiscardLogger()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewCounters()
	}
	if cfg.Schedule == nil {
		cfg.Schedule = defaultScheduler
	}
	return &Hub{
		registry:     cfg.Registry,
		store:        cfg.Store,
		director:     cfg.Director,
		arbiter:      cfg.Arbiter,
		subscribers:  make(map[string]Sender),
		respawns:     make(map[string]Timer),
		batchSize:    cfg.ZombieBatchSize,
		respawnDelay: cfg.RespawnDelay,
		tickRate:     cfg.TickRate,
		logger:       cfg.Logger,
		publisher:    cfg.Publisher,
		metrics:      cfg.Metrics,
		clock:        cfg.Clock,
		schedule:     cfg.Schedule,
		dropCounts:   make(map[string]uint64),
	}
}

// Connect registers a session for sender, creates its player, sends the
// initialize snapshot and announces the player to everyone else.
func (h *Hub) Connect(sender Sender) session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess := h.registry.Connect(h.clock.Now())
	player := h.store.SpawnPlayer(sess.ID)
	h.subscribers[sess.ID] = sender

	snap := h.store.Snapshot()
	zombies := make(map[string]proto.ZombieState, len(snap.Zombies))
	for id, z := range snap.Zombies {
		zombies[id] = proto.FromZombie(z)
	}
	h.sendLocked(sess.ID, proto.TypeInitialize, proto.Initialize{
		ID:             sess.ID,
		Players:        proto.PlayerMap(snap.Players),
		Zombies:        zombies,
		GameInProgress: h.gameInProgress,
		IsHost:         sess.IsHost,
	})
	h.broadcastLocked(proto.TypePlayerJoined, proto.FromPlayer(player), sess.ID)

	lifecycle.PlayerJoined(context.Background(), h.publisher, logging.PlayerRef(sess.ID), lifecycle.PlayerJoinedPayload{
		SpawnX: player.Position.X(),
		SpawnY: player.Position.Y(),
		SpawnZ: player.Position.Z(),
		IsHost: sess.IsHost,
	})
	h.logger.Printf("player %s connected (host=%t, sessions=%d)", sess.ID, sess.IsHost, h.registry.Len())
	return sess
}

// Disconnect removes the session and its player. When the host leaves the
// running game is torn down and the next session is promoted.
func (h *Hub) Disconnect(id, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.registry.Disconnect(id)
	if !ok {
		h.logger.Printf("disconnect for unknown session %s ignored", id)
		return
	}
	if sub, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		sub.Close()
	}
	delete(h.dropCounts, id)
	if timer, ok := h.respawns[id]; ok {
		timer.Stop()
		delete(h.respawns, id)
	}
	h.store.RemovePlayer(id)
	h.director.ForgetPlayer(id)
	h.arbiter.Forget(id)

	h.broadcastLocked(proto.TypePlayerLeft, proto.PlayerLeft{ID: id}, "")
	lifecycle.PlayerDisconnected(context.Background(), h.publisher, logging.PlayerRef(id), lifecycle.PlayerDisconnectedPayload{
		Reason:  reason,
		WasHost: sess.IsHost,
	})
	h.logger.Printf("player %s disconnected (%s)", id, reason)

	if !sess.IsHost {
		return
	}
	h.hardResetLocked()
	if next, ok := h.registry.Host(); ok {
		h.broadcastLocked(proto.TypeHostChanged, proto.HostChanged{ID: next.ID}, "")
		lifecycle.HostChanged(context.Background(), h.publisher, logging.PlayerRef(next.ID), lifecycle.HostChangedPayload{Previous: id})
		h.logger.Printf("host moved from %s to %s", id, next.ID)
	}
}

func (h *Hub) hardResetLocked() {
	h.gameInProgress = false
	cleared := h.store.Reset(false)
	h.director.Reset()
	h.metrics.Add(CounterGameResets, 1)
	h.broadcastLocked(proto.TypeGameReset, nil, "")
	lifecycle.GameReset(context.Background(), h.publisher, logging.WorldRef(), lifecycle.GameResetPayload{ZombiesCleared: cleared})
}

// sendLocked queues one message for a single session.
func (h *Hub) sendLocked(id, msgType string, data any) {
	sub, ok := h.subscribers[id]
	if !ok {
		return
	}
	payload, err := proto.Encode(msgType, data)
	if err != nil {
		h.logger.Printf("failed to encode %s for %s: %v", msgType, id, err)
		return
	}
	if !sub.Send(payload) {
		h.reportDropLocked(id, msgType)
	}
}

// broadcastLocked encodes once and queues for every session except exclude.
func (h *Hub) broadcastLocked(msgType string, data any, exclude string) {
	if len(h.subscribers) == 0 {
		return
	}
	payload, err := proto.Encode(msgType, data)
	if err != nil {
		h.logger.Printf("failed to encode %s: %v", msgType, err)
		return
	}
	for id, sub := range h.subscribers {
		if id == exclude {
			continue
		}
		if !sub.Send(payload) {
			h.reportDropLocked(id, msgType)
		}
	}
}

func (h *Hub) reportDropLocked(id, msgType string) {
	h.metrics.Add(CounterSendDropped, 1)
	count := h.dropCounts[id] + 1
	h.dropCounts[id] = count
	network.SendDropped(context.Background(), h.publisher, logging.PlayerRef(id), network.SendDroppedPayload{Type: msgType, Count: count})
	if count&(count-1) == 0 {
		h.logger.Printf("[backpressure] dropping %s for %s count=%d", msgType, id, count)
	}
}

// GameInProgress reports the game flag.
func (h *Hub) GameInProgress() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gameInProgress
}

// Close stops pending respawns and closes every session queue.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, timer := range h.respawns {
		timer.Stop()
		delete(h.respawns, id)
	}
	ids := make([]string, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		h.subscribers[id].Close()
		delete(h.subscribers, id)
	}
}
