package logging_test

import (
	"context"
	"testing"
	"time"

	"zombie-siege/logging"
	"zombie-siege/logging/combat"
	"zombie-siege/logging/sinks"
)

func TestRouterFiltersSeverityAndMergesFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"service": "test"}
	fixed := time.Unix(42, 0)
	router := logging.NewRouter(logging.ClockFunc(func() time.Time { return fixed }), cfg, nil, []logging.NamedSink{{Name: "memory", Sink: memory}})

	combat.Damage(context.Background(), router, 6, logging.PlayerRef("p1"), logging.ZombieRef("zombie_0"), combat.DamagePayload{
		Weapon:       "pistol",
		Amount:       25,
		TargetHealth: 0,
	})
	combat.Defeat(context.Background(), router, 7, logging.PlayerRef("p1"), logging.ZombieRef("zombie_0"), combat.DefeatPayload{
		Weapon: "pistol",
		Score:  100,
	})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event past the filter, got %d", len(events))
	}
	event := events[0]
	if event.Type != combat.EventDefeat || event.Tick != 7 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if !event.Time.Equal(fixed) {
		t.Fatalf("expected clock time %v, got %v", fixed, event.Time)
	}
	if event.Extra["service"] != "test" {
		t.Fatalf("expected merged field, got %v", event.Extra)
	}
	if len(event.Targets) != 1 || event.Targets[0].Kind != logging.EntityKindZombie {
		t.Fatalf("expected zombie target, got %+v", event.Targets)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected 1 routed event, got %d", stats.EventsTotal)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected sink lookup by name")
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.DefaultConfig(), nil, []logging.NamedSink{{Name: "memory", Sink: memory}})

	router.Publish(context.Background(), logging.Event{Type: "before", Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "after", Severity: logging.SeverityInfo})

	if len(memory.EventsOfType("before")) != 1 {
		t.Fatalf("expected queued event to be drained on close")
	}
	if len(memory.EventsOfType("after")) != 0 {
		t.Fatalf("expected publish after close to be ignored")
	}
}

func TestParseSeverity(t *testing.T) {
	for raw, want := range map[string]logging.Severity{
		"debug": logging.SeverityDebug,
		"INFO":  logging.SeverityInfo,
		"warn":  logging.SeverityWarn,
		"error": logging.SeverityError,
	} {
		got, ok := logging.ParseSeverity(raw)
		if !ok || got != want {
			t.Fatalf("expected %q to parse as %v, got %v ok=%v", raw, want, got, ok)
		}
	}
	if _, ok := logging.ParseSeverity("loud"); ok {
		t.Fatalf("expected unknown severity to fail")
	}
}
