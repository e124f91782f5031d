package controller

import (
	"filechat-be/internal/dto"
	"filechat-be/internal/pkg/serverutils"
	"filechat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Exists(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	r.Get("/session/:id", c.Exists)
}

func (c *sessionController) Exists(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")

	exists, err := c.sessionService.Exists(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check session", dto.SessionExistsResponse{
		Exists: exists,
	}))
}
