package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formchat-be/internal/dto"
	"formchat-be/internal/pkg/serverutils"
	"formchat-be/internal/service"
	"formchat-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d"

type stubConversations struct {
	service.IConversationService
	got  *dto.SendMessageRequest
	user string
	err  error
}

func (s *stubConversations) SendMessage(ctx context.Context, userId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	s.got, s.user = req, userId
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SendMessageResponse{
		SessionId:    req.SessionId,
		ResponseText: "What is your name?",
		StageFrom:    store.StageIdle,
		StageTo:      store.StageFilling,
	}, nil
}

type stubForms struct {
	service.IFormService
	update *dto.UpdateResponseStatusRequest
}

func (s *stubForms) UpdateResponseStatus(ctx context.Context, userId uuid.UUID, req *dto.UpdateResponseStatusRequest) (*dto.FormResponseResponse, error) {
	s.update = req
	return &dto.FormResponseResponse{Id: req.Id.String(), Status: req.Status}, nil
}

func newApp(t *testing.T, register func(fiber.Router)) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	register(app.Group("/api"))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, serverutils.Response[json.RawMessage]) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": testUser,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var out serverutils.Response[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestConversationController_SendMessage(t *testing.T) {
	t.Run("explain query overrides body", func(t *testing.T) {
		svc := &stubConversations{}
		app := newApp(t, NewConversationController(svc).RegisterRoutes)

		code, body := call(t, app, "POST", "/api/conversation/v1/message?explain=developer",
			`{"session_id":"s1","message":"I need to report an incident"}`)

		assert.Equal(t, 200, code)
		assert.True(t, body.Success)
		assert.Equal(t, "developer", svc.got.Explain)
		assert.Equal(t, testUser, svc.user)
	})

	t.Run("missing session id", func(t *testing.T) {
		app := newApp(t, NewConversationController(&stubConversations{}).RegisterRoutes)

		code, body := call(t, app, "POST", "/api/conversation/v1/message", `{"message":"hi"}`)

		assert.Equal(t, 400, code)
		assert.Contains(t, body.Message, "SessionId")
	})

	t.Run("conflict surfaces as 409", func(t *testing.T) {
		svc := &stubConversations{err: serverutils.NewConflictError("Conversation changed, retry", nil)}
		app := newApp(t, NewConversationController(svc).RegisterRoutes)

		code, _ := call(t, app, "POST", "/api/conversation/v1/message", `{"session_id":"s1","message":"hi"}`)

		assert.Equal(t, 409, code)
	})
}

func TestFormController_UpdateResponseStatus(t *testing.T) {
	svc := &stubForms{}
	app := newApp(t, NewFormController(svc).RegisterRoutes)
	id := uuid.New()

	code, _ := call(t, app, "PATCH", "/api/forms/v1/responses/"+id.String()+"/status", `{"status":"approved","note":"ok"}`)
	assert.Equal(t, 200, code)
	require.NotNil(t, svc.update)
	assert.Equal(t, id, svc.update.Id)

	code, _ = call(t, app, "PATCH", "/api/forms/v1/responses/"+id.String()+"/status", `{"status":"complete"}`)
	assert.Equal(t, 400, code)

	code, _ = call(t, app, "PATCH", "/api/forms/v1/responses/not-a-uuid/status", `{"status":"approved"}`)
	assert.Equal(t, 404, code)
}
