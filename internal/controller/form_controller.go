package controller

import (
	"formchat-be/internal/dto"
	"formchat-be/internal/pkg/serverutils"
	"formchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFormController interface {
	RegisterRoutes(r fiber.Router)
	ListTemplates(ctx *fiber.Ctx) error
	CreateTemplate(ctx *fiber.Ctx) error
	ShowTemplate(ctx *fiber.Ctx) error
	ArchiveTemplate(ctx *fiber.Ctx) error
	ListResponses(ctx *fiber.Ctx) error
	UpdateResponseStatus(ctx *fiber.Ctx) error
}

type formController struct {
	service service.IFormService
}

func NewFormController(service service.IFormService) IFormController {
	return &formController{service: service}
}

func (c *formController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/forms/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("templates", c.ListTemplates)
	h.Post("templates", c.CreateTemplate)
	h.Get("templates/:id", c.ShowTemplate)
	h.Delete("templates/:id", c.ArchiveTemplate)
	h.Get("responses", c.ListResponses)
	h.Patch("responses/:id/status", c.UpdateResponseStatus)
}

func userID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(serverutils.UserID(ctx))
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

func paramID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, serverutils.NewNotFoundError("Not found")
	}
	return id, nil
}

func (c *formController) ListTemplates(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListTemplates(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all forms", res))
}

func (c *formController) CreateTemplate(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateFormTemplateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateTemplate(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create form", res))
}

func (c *formController) ShowTemplate(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ShowTemplate(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show form", res))
}

func (c *formController) ArchiveTemplate(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.ArchiveTemplate(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success archive form", nil))
}

func (c *formController) ListResponses(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.ListFormResponsesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ListResponses(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get responses", res))
}

func (c *formController) UpdateResponseStatus(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateResponseStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateResponseStatus(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update response status", res))
}
