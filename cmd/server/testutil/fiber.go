package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillmart/cmd/server/ctxkeys"
	"skillmart/cmd/server/handlers/httperr"
	"skillmart/internal/config"
	"skillmart/internal/logger"
	util "skillmart/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestApp creates a basic Fiber app for testing with common configuration
func CreateTestApp(t *testing.T) *fiber.App {
	cfg := config.Config{LogLevel: "debug", LogFormat: "text"}
	_, err := logger.Init(cfg)
	require.NoError(t, err)

	return fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
	})
}

// CreateTestValidator returns the validator the server uses
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	return util.NewValidator()
}

// CreateTestJWT creates a JWT token shaped like the ones auth issues
func CreateTestJWT(userID string, email string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   now.Add(expiry).Unix(),
		"iat":   now.Unix(),
	})

	return token.SignedString(secret)
}

// FakeAuth trusts the X-Test-User header instead of a JWT, so handler tests
// can act as any user without signing tokens.
func FakeAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := c.Get("X-Test-User")
		if uid == "" {
			return httperr.Fail(httperr.ErrUnauthorized)
		}
		c.Locals(ctxkeys.UserIDKey, uid)
		c.Locals(ctxkeys.UserEmailKey, "test@example.com")
		return c.Next()
	}
}

// CreateJSONRequest creates an HTTP request with JSON body
func CreateJSONRequest(method, url string, body any) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateAuthenticatedRequest creates an HTTP request with Authorization header
func CreateAuthenticatedRequest(method, url string, body any, token string) *http.Request {
	req := CreateJSONRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// AsUser creates a JSON request that FakeAuth attributes to userID
func AsUser(method, url string, body any, userID string) *http.Request {
	req := CreateJSONRequest(method, url, body)
	req.Header.Set("X-Test-User", userID)
	return req
}

// CreateMultipartRequest builds a multipart form with one file field
func CreateMultipartRequest(t *testing.T, url, field, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// CreateWebSocketRequest creates an HTTP request with WebSocket upgrade headers
func CreateWebSocketRequest(url string, token *string) *http.Request {
	requestURL := url
	if token != nil {
		requestURL += "?token=" + *token
	}

	req := httptest.NewRequest("GET", requestURL, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "test-key")
	return req
}

// DecodeJSON reads resp's body into out
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
}
