package websocket

import (
	"encoding/json"
	"time"

	"filechat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// InboundHandler receives every client frame together with the id of the
// connection it arrived on.
type InboundHandler func(connectionID string, msg dto.ClientMessage)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// ConnectionID issued during negotiation
	ConnectionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	onMessage InboundHandler
}

// ServeWs runs the read/write pumps for an upgraded connection. Blocks
// until the connection closes.
func ServeWs(hub *Hub, conn *websocket.Conn, connectionID string, onMessage InboundHandler) {
	client := &Client{
		Hub:          hub,
		Conn:         conn,
		ConnectionID: connectionID,
		Send:         make(chan []byte, 256),
		onMessage:    onMessage,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}

// readPump pumps messages from the websocket connection to the inbound handler.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"connection_id": c.ConnectionID,
					"error":         err.Error(),
				})
			}
			break
		}

		var msg dto.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Hub.logger.Warn("Client", "Ignoring malformed client frame", map[string]interface{}{
				"connection_id": c.ConnectionID,
				"error":         err.Error(),
			})
			continue
		}
		c.onMessage(c.ConnectionID, msg)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
