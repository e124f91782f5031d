package dto

// ClientMessage is the frame a browser tab sends on the channel.
type ClientMessage struct {
	SessionId   string `json:"sessionId" validate:"required"`
	MessageText string `json:"messageText" validate:"required"`
}

// ServerMessage is the frame the relay pushes back. Exactly one of the
// fields is meaningful per message: a partial answer, a terminal error, or
// the end-of-response marker. An error terminates the response; no
// endResponse follows it.
type ServerMessage struct {
	ResponseChunk string `json:"responseChunk,omitempty"`
	Error         string `json:"error,omitempty"`
	EndResponse   bool   `json:"endResponse,omitempty"`
}

// InboundChatMessage is a ClientMessage stamped with the originating
// connection id, as published on the relay topic.
type InboundChatMessage struct {
	ConnectionId string `json:"connection_id"`
	SessionId    string `json:"session_id"`
	MessageText  string `json:"message_text"`
}
