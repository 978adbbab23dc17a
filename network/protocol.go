package network

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/vi-cloth/engine"
)

// MessageType identifies the payload carried by a Message
type MessageType string

const (
	// MsgHello is sent once per connection before any frame
	MsgHello MessageType = "hello"
	// MsgFrame carries one published simulation frame
	MsgFrame MessageType = "frame"
)

// Message is the JSON envelope written to websocket clients
type Message struct {
	Type  MessageType   `json:"type"`
	Hello *Hello        `json:"hello,omitempty"`
	Frame *engine.Frame `json:"frame,omitempty"`
}

// Hello describes the static part of the cloth a client needs to draw frames
type Hello struct {
	ClientID  string       `json:"client_id"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Spacing   float32      `json:"spacing"`
	UVs       []mgl32.Vec2 `json:"uvs"`
	Triangles []uint32     `json:"triangles"`
}
