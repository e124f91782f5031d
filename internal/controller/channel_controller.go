package controller

import (
	"context"
	"encoding/json"

	"filechat-be/internal/dto"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/pkg/serverutils"
	"filechat-be/internal/service"
	internalWS "filechat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IChannelController exposes the shared channel surface: anonymous
// negotiation plus the websocket endpoint the negotiated url points at.
type IChannelController interface {
	RegisterRoutes(r fiber.Router)
	Negotiate(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type channelController struct {
	channelService   service.IChannelService
	publisherService service.IPublisherService
	hub              *internalWS.Hub
	logger           logger.ILogger
}

func NewChannelController(
	channelService service.IChannelService,
	publisherService service.IPublisherService,
	hub *internalWS.Hub,
	log logger.ILogger,
) IChannelController {
	return &channelController{
		channelService:   channelService,
		publisherService: publisherService,
		hub:              hub,
		logger:           log,
	}
}

func (c *channelController) RegisterRoutes(r fiber.Router) {
	// Some client SDKs negotiate with GET, others with POST.
	r.Get("/negotiate", c.Negotiate)
	r.Post("/negotiate", c.Negotiate)
	r.Get("/ws", c.ServeWs)
}

func (c *channelController) Negotiate(ctx *fiber.Ctx) error {
	res, err := c.channelService.Negotiate(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// ServeWs validates the negotiated token and hands the connection to the
// hub.
func (c *channelController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("access_token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing access token")
	}

	connectionID, err := c.channelService.Authorize(ctx.UserContext(), tokenStr)
	if err != nil {
		c.logger.Warn("ChannelController", "Rejected WS handshake", map[string]interface{}{
			"error": err.Error(),
		})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid access token")
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("ChannelController", "Starting WebSocket session", map[string]interface{}{"connection_id": connectionID})
			internalWS.ServeWs(c.hub, conn, connectionID, c.forwardInbound)
			c.logger.Info("ChannelController", "WebSocket session ended", map[string]interface{}{"connection_id": connectionID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

// forwardInbound stamps a client frame with its connection id and puts it
// on the relay topic.
func (c *channelController) forwardInbound(connectionID string, msg dto.ClientMessage) {
	if err := serverutils.ValidateRequest(msg); err != nil {
		c.hub.Send(connectionID, dto.ServerMessage{Error: "Invalid message"})
		return
	}

	payload, err := json.Marshal(dto.InboundChatMessage{
		ConnectionId: connectionID,
		SessionId:    msg.SessionId,
		MessageText:  msg.MessageText,
	})
	if err != nil {
		c.logger.Error("ChannelController", "Failed to marshal inbound message", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := c.publisherService.Publish(context.Background(), payload); err != nil {
		c.logger.Error("ChannelController", "Failed to publish inbound message", map[string]interface{}{"error": err.Error()})
		c.hub.Send(connectionID, dto.ServerMessage{Error: "Failed to accept message"})
	}
}
