package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	negotiateAttempts       = 5
	negotiateInitialBackoff = 500 * time.Millisecond
	negotiateBackoffCeiling = 8 * time.Second
)

// WSTransport negotiates over HTTP and connects with a real websocket.
type WSTransport struct {
	// BaseURL of the channel server, e.g. http://localhost:3000.
	BaseURL string

	// HTTPClient for negotiation. Defaults to a 30s-timeout client.
	HTTPClient *http.Client

	// Dialer for the websocket connection. Defaults to
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func NewWSTransport(baseURL string) *WSTransport {
	return &WSTransport{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Negotiate asks the server for a fresh connection credential, retrying
// transient failures with capped exponential backoff.
func (t *WSTransport) Negotiate(ctx context.Context) (NegotiateResult, error) {
	httpClient := t.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	backoff := negotiateInitialBackoff
	var lastErr error
	for attempt := 0; attempt < negotiateAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NegotiateResult{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > negotiateBackoffCeiling {
				backoff = negotiateBackoffCeiling
			}
		}

		res, err := t.negotiateOnce(ctx, httpClient)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return NegotiateResult{}, fmt.Errorf("negotiate failed after %d attempts: %w", negotiateAttempts, lastErr)
}

func (t *WSTransport) negotiateOnce(ctx context.Context, httpClient *http.Client) (NegotiateResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/api/negotiate", nil)
	if err != nil {
		return NegotiateResult{}, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return NegotiateResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NegotiateResult{}, fmt.Errorf("negotiate returned %d: %s", resp.StatusCode, string(body))
	}

	var result NegotiateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return NegotiateResult{}, fmt.Errorf("decode negotiate response: %w", err)
	}
	if result.Url == "" {
		return NegotiateResult{}, fmt.Errorf("negotiate response missing url")
	}
	return result, nil
}

// Connect dials the negotiated websocket url.
func (t *WSTransport) Connect(ctx context.Context, url string) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	wsURL := url
	if strings.HasPrefix(wsURL, "http://") {
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	} else if strings.HasPrefix(wsURL, "https://") {
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
