package proto

import (
	"encoding/json"
	"fmt"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeEvent     = "event"
	TypeHeartbeat = "heartbeat"
)

// Server message type identifiers.
const (
	TypeJoined       = "joined"
	TypeState        = "state"
	TypeEventOutcome = "eventOutcome"
	TypeEventReject  = "eventReject"
)

// Event kind identifiers accepted from clients.
const (
	KindSpawn   = "spawn"
	KindMove    = "move"
	KindStrike  = "strike"
	KindHeal    = "heal"
	KindDespawn = "despawn"
)

// Rejection reasons carried by EventRejectMessage.
const (
	RejectOutOfHorizon = "out_of_horizon"
	RejectUnknownKind  = "unknown_kind"
)

// ClientMessage is the envelope decoded from client websocket frames.
// Events carry the client-predicted timestamp in server ticks; the hub
// rolls the timeline back when it arrives late.
type ClientMessage struct {
	Type   string  `json:"type" jsonschema:"title=Message type,enum=event,enum=heartbeat"`
	Kind   string  `json:"kind,omitempty" jsonschema:"title=Event kind,enum=spawn,enum=move,enum=strike,enum=heal,enum=despawn"`
	At     uint64  `json:"at,omitempty" jsonschema:"title=Event timestamp in server ticks"`
	Target uint64  `json:"target,omitempty" jsonschema:"title=Target pawn id"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Amount float64 `json:"amount,omitempty" jsonschema:"description=Damage for strike events and restored health for heal events"`
	SentAt int64   `json:"sentAt,omitempty" jsonschema:"description=Client wall-clock millis echoed in heartbeat acks"`
}

// PawnView mirrors one pawn inside a state broadcast.
type PawnView struct {
	ID     uint64  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health float64 `json:"health"`
}

// StateMessage carries the reconciled stage after a tick.
type StateMessage struct {
	Type       string     `json:"type"`
	Tick       uint64     `json:"tick"`
	ServerTime int64      `json:"serverTime"`
	Pawns      []PawnView `json:"pawns"`
}

// NewStateMessage stamps the type identifier onto a state broadcast.
func NewStateMessage(tick uint64, serverTime int64, pawns []PawnView) StateMessage {
	return StateMessage{Type: TypeState, Tick: tick, ServerTime: serverTime, Pawns: pawns}
}

// JoinedMessage acknowledges a join and names the client's pawn.
type JoinedMessage struct {
	Type    string `json:"type"`
	Version int    `json:"protocolVersion"`
	PawnID  uint64 `json:"pawnId"`
	Tick    uint64 `json:"tick"`
}

// NewJoinedMessage stamps the type and protocol version.
func NewJoinedMessage(pawnID, tick uint64) JoinedMessage {
	return JoinedMessage{Type: TypeJoined, Version: Version, PawnID: pawnID, Tick: tick}
}

// EventOutcomeMessage reports an edge in a submitted event's result: it is
// sent when the event first applies and again whenever a resimulation flips
// the outcome.
type EventOutcomeMessage struct {
	Type   string `json:"type"`
	Target uint64 `json:"target"`
	OK     bool   `json:"ok"`
}

// NewEventOutcomeMessage stamps the type identifier.
func NewEventOutcomeMessage(target uint64, ok bool) EventOutcomeMessage {
	return EventOutcomeMessage{Type: TypeEventOutcome, Target: target, OK: ok}
}

// EventRejectMessage reports an insertion the hub or timeline refused.
type EventRejectMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	At     uint64 `json:"at"`
}

// NewEventRejectMessage stamps the type identifier.
func NewEventRejectMessage(reason string, at uint64) EventRejectMessage {
	return EventRejectMessage{Type: TypeEventReject, Reason: reason, At: at}
}

// HeartbeatMessage echoes client time so clients can sample RTT.
type HeartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// NewHeartbeatMessage stamps the type identifier.
func NewHeartbeatMessage(serverTime, clientTime int64) HeartbeatMessage {
	return HeartbeatMessage{Type: TypeHeartbeat, ServerTime: serverTime, ClientTime: clientTime}
}

// DecodeClientMessage parses a client frame and validates the envelope.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	switch msg.Type {
	case TypeEvent, TypeHeartbeat:
		return msg, nil
	case "":
		return ClientMessage{}, fmt.Errorf("decode client message: missing type")
	default:
		return ClientMessage{}, fmt.Errorf("decode client message: unknown type %q", msg.Type)
	}
}

// Encode renders any outbound message as JSON.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}
