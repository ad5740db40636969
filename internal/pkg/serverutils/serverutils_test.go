package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"app error", NewConflictError("Conversation changed, retry", errors.New("version 3")), 409, "Conversation changed, retry"},
		{"wrapped app error", errors.Join(NewNotFoundError("Form not found")), 404, "Form not found"},
		{"fiber error", fiber.ErrUnprocessableEntity, 422, "Unprocessable Entity"},
		{"internal", errors.New("pq: connection refused"), 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			var body Response[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Message string `validate:"required,max=5"`
	}

	assert.NoError(t, ValidateRequest(req{Message: "hi"}))

	err := ValidateRequest(req{})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Message, "Message is required")

	err = ValidateRequest(req{Message: "too long"})
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "max=5")
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := sign(jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}, "test-secret")

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + valid, 200},
		{"missing", "", 401},
		{"wrong secret", "Bearer " + sign(jwt.MapClaims{"user_id": "u1"}, "other"), 401},
		{"expired", "Bearer " + sign(jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}, "test-secret"), 401},
		{"no user", "Bearer " + sign(jwt.MapClaims{"sub": "u1"}, "test-secret"), 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", JwtMiddleware, func(ctx *fiber.Ctx) error {
				return ctx.SendString(UserID(ctx))
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}
