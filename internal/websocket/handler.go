package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs a conversation socket until the peer disconnects.
func ServeWs(ctx context.Context, hub *Hub, conn *websocket.Conn, userID uuid.UUID, turn TurnFunc) {
	client := NewClient(hub, conn, userID)
	client.Hub.register <- client

	go client.writePump()
	client.readPump(ctx, turn)
}
