package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

type loggedEvent struct {
	Type     string          `json:"type"`
	Sequence uint64          `json:"sequence"`
	RunID    string          `json:"runId"`
	Source   string          `json:"source"`
	Payload  json.RawMessage `json:"payload"`
}

func readLog(t *testing.T, buf *bytes.Buffer) []loggedEvent {
	t.Helper()
	var out []loggedEvent
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var ev loggedEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", sc.Text(), err)
		}
		out = append(out, ev)
	}
	return out
}

func TestEventLogWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	if err := el.StartWriter(&buf); err != nil {
		t.Fatal(err)
	}

	el.EmitGame(GameEvent{Type: EventTypeSpawn, EnemyID: 3, Archetype: Heavy, Pos: Vec2{10, -20}}, 1, "run-1")
	el.EmitGame(GameEvent{Type: EventTypeKill, EnemyID: 3, Archetype: Heavy, Cause: CauseTurret, Points: 30, Combo: 1}, 2, "run-1")
	el.Stop()

	events := readLog(t, &buf)
	if len(events) != 2 {
		t.Fatalf("logged %d events, want 2", len(events))
	}
	if events[0].Type != "spawn" || events[1].Type != "kill" {
		t.Errorf("types = %s, %s", events[0].Type, events[1].Type)
	}
	if events[0].Sequence != 1 || events[1].Sequence != 2 {
		t.Errorf("sequences = %d, %d", events[0].Sequence, events[1].Sequence)
	}

	var kill KillPayload
	if err := json.Unmarshal(events[1].Payload, &kill); err != nil {
		t.Fatal(err)
	}
	if kill.Archetype != "heavy" || kill.Cause != "turret" || kill.Points != 30 {
		t.Errorf("kill payload = %+v", kill)
	}
}

func TestEventLogSourceLimit(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	if err := el.StartWriter(&buf); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	accepted := 0
	for i := 0; i < 40; i++ {
		if el.Emit(NewEvent(EventTypeFire, 1, "run", "client-a", FirePayload{X: 1, Y: 2})) {
			accepted++
		}
	}
	if accepted == 0 || accepted >= 40 {
		t.Errorf("client burst accepted %d of 40", accepted)
	}

	// Simulation events bypass the per-source limiter.
	for i := 0; i < 40; i++ {
		if !el.EmitGame(GameEvent{Type: EventTypeSpawn}, 1, "run") {
			t.Fatalf("sim event %d rejected", i)
		}
	}
	if el.GetDroppedCount() != uint64(40-accepted) {
		t.Errorf("dropped = %d, want %d", el.GetDroppedCount(), 40-accepted)
	}
}

func TestEventLogNotRunning(t *testing.T) {
	el := NewEventLog()
	if el.Emit(NewEvent(EventTypeKill, 0, "", SourceSim, nil)) {
		t.Error("Emit accepted before Start")
	}
	el.Stop() // Must not block or panic
}
