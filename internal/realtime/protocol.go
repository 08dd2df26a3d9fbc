// Package realtime models the pub/sub fan-out layer: a Redis-backed
// Broker that publishes state-change events across process instances, and
// a Registry that tracks which sessions want which game's events. No
// websocket listener is wired up here (transport is out of scope); the
// message shapes exist so a future transport can serialize them directly.
package realtime

import "github.com/robpatriot/nommie/internal/playerview"

// ProtocolVersion is the only "hello" version this server accepts.
const ProtocolVersion = 1

// Topic identifies what a session is subscribed to. Kind is always "game"
// today; the field exists because the wire format names it explicitly.
type Topic struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// ClientMessage is everything a client may send, discriminated by Type.
// Go has no tagged-union JSON type, so every optional field is pointer or
// zero-valued depending on Type, mirroring the wire shapes named in the
// websocket protocol section rather than building one struct per message.
type ClientMessage struct {
	Type     string `json:"type"`
	Protocol int    `json:"protocol,omitempty"`
	Topic    *Topic `json:"topic,omitempty"`
}

// ServerMessage is everything the server may send, discriminated by Type:
// "hello_ack", "ack", "game_state", "game_state_available", "your_turn",
// "long_wait_invalidated", or "error".
type ServerMessage struct {
	Type     string            `json:"type"`
	Protocol int               `json:"protocol,omitempty"`
	Topic    *Topic            `json:"topic,omitempty"`
	Version  int32             `json:"version,omitempty"`
	GameID   int64             `json:"game_id,omitempty"`
	Game     *playerview.View  `json:"game,omitempty"`
	Viewer   int               `json:"viewer,omitempty"`
	Code     string            `json:"code,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// HelloAck acknowledges a supported "hello".
func HelloAck() ServerMessage {
	return ServerMessage{Type: "hello_ack", Protocol: ProtocolVersion}
}

// Ack acknowledges a subscribe/unsubscribe.
func Ack(topic Topic) ServerMessage {
	return ServerMessage{Type: "ack", Topic: &topic}
}

// GameState is the snapshot pushed on subscribe and after every mutation a
// subscriber is authorized to see.
func GameState(topic Topic, version int32, view playerview.View) ServerMessage {
	return ServerMessage{Type: "game_state", Topic: &topic, Version: version, Game: &view, Viewer: view.YourSeat}
}

// YourTurn is the out-of-band nudge published on a user's own topic.
func YourTurn(gameID int64, version int32) ServerMessage {
	return ServerMessage{Type: "your_turn", GameID: gameID, Version: version}
}

// LongWaitInvalidated tells a user their long-wait navigation state changed.
func LongWaitInvalidated(gameID int64) ServerMessage {
	return ServerMessage{Type: "long_wait_invalidated", GameID: gameID}
}

// ErrorMessage reports a protocol error; the socket closes after sending it.
func ErrorMessage(code, message string) ServerMessage {
	return ServerMessage{Type: "error", Code: code, Message: message}
}
