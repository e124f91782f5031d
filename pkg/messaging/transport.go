package messaging

import "context"

// NegotiateResult is the credential pair handed out by the negotiate
// endpoint.
type NegotiateResult struct {
	Url         string `json:"url"`
	AccessToken string `json:"accessToken"`
}

// Conn is one open channel connection.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Transport abstracts negotiation and connection establishment so the
// client state machine can be exercised without a server.
type Transport interface {
	Negotiate(ctx context.Context) (NegotiateResult, error)
	Connect(ctx context.Context, url string) (Conn, error)
}
