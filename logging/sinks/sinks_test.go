package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"zombie-siege/logging"
)

func sampleEvent() logging.Event {
	return logging.Event{
		Type:     "combat.defeat",
		Tick:     12,
		Time:     time.Unix(100, 0).UTC(),
		Actor:    logging.PlayerRef("p1"),
		Targets:  []logging.EntityRef{logging.ZombieRef("zombie_3")},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"score": 100},
	}
}

func TestJSONSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["type"] != "combat.defeat" || decoded["severity"] != "info" || decoded["tick"] != 12.0 {
		t.Fatalf("unexpected line: %v", decoded)
	}
}

func TestConsoleSinkFormatsEntities(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	line := buf.String()
	for _, want := range []string{"[combat.defeat]", "tick=12", "actor=player:p1", "targets=zombie:zombie_3", `payload={"score":100}`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestMemorySinkFiltersByType(t *testing.T) {
	sink := NewMemorySink()
	sink.Write(sampleEvent())
	sink.Write(logging.Event{Type: "other"})

	if got := len(sink.EventsOfType("combat.defeat")); got != 1 {
		t.Fatalf("expected 1 defeat event, got %d", got)
	}
	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}
