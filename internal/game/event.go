package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown       EventType = iota
	EventTypeRunStart                // New run entered PLAYING
	EventTypeSpawn                   // Enemy created
	EventTypeFire                    // Player interceptor launched
	EventTypeTurretFire              // Turret projectile launched
	EventTypeKill                    // Enemy destroyed (turret, explosion or shield)
	EventTypeBlock                   // Shield absorbed an enemy
	EventTypeBuildingLost            // Impact destroyed a building
	EventTypeGroundImpact            // Impact missed every building
	EventTypeLevelComplete           // Level timer elapsed
	EventTypeGameOver                // Last building fell
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeRunStart:
		return "run_start"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeFire:
		return "fire"
	case EventTypeTurretFire:
		return "turret_fire"
	case EventTypeKill:
		return "kill"
	case EventTypeBlock:
		return "block"
	case EventTypeBuildingLost:
		return "building_lost"
	case EventTypeGroundImpact:
		return "ground_impact"
	case EventTypeLevelComplete:
		return "level_complete"
	case EventTypeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText lets EventType appear by name in JSON.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// KillCause says which domain destroyed an enemy.
type KillCause uint8

const (
	CauseNone KillCause = iota
	CauseTurret
	CauseExplosion
	CauseShield
)

func (c KillCause) String() string {
	switch c {
	case CauseTurret:
		return "turret"
	case CauseExplosion:
		return "explosion"
	case CauseShield:
		return "shield"
	default:
		return "none"
	}
}

// GameEvent is emitted by the session during a tick, in resolution order.
type GameEvent struct {
	Type      EventType
	Time      float64 // Level elapsed seconds
	EnemyID   EntityID
	Archetype Archetype
	Cause     KillCause
	Pos       Vec2
	Building  EntityID
	Points    int // Filled in by the ledger for kills
	Combo     int
	Stats     LevelStats
	Score     int64
}

// Event is the envelope written to the event log.
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`   // Engine tick this occurred in
	RunID     string          `json:"runId"`     // Run the event belongs to
	Source    string          `json:"source"`    // Origin used for rate limiting
	Payload   json.RawMessage `json:"payload"`   // JSON-encoded payload
}

// Typed payloads for different event types

// SpawnPayload describes a new enemy.
type SpawnPayload struct {
	EnemyID   EntityID `json:"enemyId"`
	Archetype string   `json:"archetype"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
}

// FirePayload describes an interceptor or turret launch.
type FirePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// KillPayload contains kill event details
type KillPayload struct {
	EnemyID   EntityID `json:"enemyId"`
	Archetype string   `json:"archetype"`
	Cause     string   `json:"cause"`
	Points    int      `json:"points"`
	Combo     int      `json:"combo"`
}

// ImpactPayload describes an enemy reaching the defense line.
type ImpactPayload struct {
	EnemyID    EntityID `json:"enemyId"`
	Archetype  string   `json:"archetype"`
	BuildingID EntityID `json:"buildingId,omitempty"`
	X          float64  `json:"x"`
}

// LevelPayload is carried by level completion and game over.
type LevelPayload struct {
	Level            int   `json:"level"`
	BuildingsLost    int   `json:"buildingsLost"`
	EnemiesDestroyed int   `json:"enemiesDestroyed"`
	Score            int64 `json:"score"`
}

// RunPayload describes a run start.
type RunPayload struct {
	Difficulty string   `json:"difficulty"`
	Upgrades   Upgrades `json:"upgrades"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, runID, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		RunID:     runID,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}

// PayloadFor builds the log payload of a session event.
func PayloadFor(ev GameEvent) interface{} {
	switch ev.Type {
	case EventTypeSpawn:
		return SpawnPayload{EnemyID: ev.EnemyID, Archetype: ev.Archetype.String(), X: ev.Pos.X, Y: ev.Pos.Y}
	case EventTypeFire, EventTypeTurretFire:
		return FirePayload{X: ev.Pos.X, Y: ev.Pos.Y}
	case EventTypeKill, EventTypeBlock:
		return KillPayload{
			EnemyID:   ev.EnemyID,
			Archetype: ev.Archetype.String(),
			Cause:     ev.Cause.String(),
			Points:    ev.Points,
			Combo:     ev.Combo,
		}
	case EventTypeBuildingLost, EventTypeGroundImpact:
		return ImpactPayload{EnemyID: ev.EnemyID, Archetype: ev.Archetype.String(), BuildingID: ev.Building, X: ev.Pos.X}
	case EventTypeLevelComplete, EventTypeGameOver:
		return LevelPayload{
			Level:            ev.Stats.Level,
			BuildingsLost:    ev.Stats.BuildingsLost,
			EnemiesDestroyed: ev.Stats.EnemiesDestroyed,
			Score:            ev.Score,
		}
	default:
		return nil
	}
}
