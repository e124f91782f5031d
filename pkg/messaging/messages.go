// Package messaging is the client side of the shared chat channel. It
// negotiates a connection, keeps one websocket open, and fans received
// server frames out to subscribed handlers.
package messaging

// ClientMessage is the frame sent to the channel.
type ClientMessage struct {
	SessionId   string `json:"sessionId"`
	MessageText string `json:"messageText"`
}

// ServerMessage is a frame received from the channel. Exactly one field is
// meaningful per frame.
type ServerMessage struct {
	ResponseChunk string `json:"responseChunk,omitempty"`
	Error         string `json:"error,omitempty"`
	EndResponse   bool   `json:"endResponse,omitempty"`
}

// Handler receives every server frame delivered while its subscription is
// active. Handlers run on the read loop goroutine and must not block.
type Handler func(msg ServerMessage)
