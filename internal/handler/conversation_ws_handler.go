package handler

import (
	"context"
	"encoding/json"
	"errors"

	"formchat-be/internal/dto"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/pkg/serverutils"
	"formchat-be/internal/service"
	internalWS "formchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	frameReply = "reply"
	frameError = "error"
)

// ConversationSocketHandler carries conversation turns over a websocket and
// is the channel review updates are pushed through.
type ConversationSocketHandler struct {
	service service.IConversationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewConversationSocketHandler(service service.IConversationService, hub *internalWS.Hub, log logger.ILogger) *ConversationSocketHandler {
	return &ConversationSocketHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

func (h *ConversationSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/conversation/v1/ws", serverutils.JwtQueryMiddleware, h.ServeWs)
}

// ServeWs upgrades an authenticated request into a conversation socket.
func (h *ConversationSocketHandler) ServeWs(c *fiber.Ctx) error {
	userID, err := uuid.Parse(serverutils.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid user ID format in token"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("CONVERSATION_WS", "Starting WebSocket session", map[string]interface{}{"user_id": userID.String()})
		internalWS.ServeWs(context.Background(), h.hub, conn, userID, h.Turn)
		h.logger.Info("CONVERSATION_WS", "WebSocket session ended", map[string]interface{}{"user_id": userID.String()})
	})(c)
}

// Turn handles one SendMessageRequest frame and returns the frame to answer with.
func (h *ConversationSocketHandler) Turn(ctx context.Context, userID uuid.UUID, frame []byte) (string, interface{}) {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return frameError, fiber.Map{"message": "Invalid frame"}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return frameError, errorBody(err)
	}

	res, err := h.service.SendMessage(ctx, userID.String(), &req)
	if err != nil {
		return frameError, errorBody(err)
	}
	return frameReply, res
}

func errorBody(err error) fiber.Map {
	var appErr *serverutils.AppError
	if errors.As(err, &appErr) {
		return fiber.Map{"code": appErr.Code, "message": appErr.Message}
	}
	return fiber.Map{"code": fiber.StatusInternalServerError, "message": "Internal server error"}
}
