package activity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"skillmart/cmd/server/ctxkeys"
	"skillmart/cmd/server/handlers/httperr"
	"skillmart/internal/logger"
	"skillmart/internal/services/activity"
	"skillmart/internal/services/users"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation is sent when the session outlives its budget
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second
	wsMaxIncomingBytes = 4 << 10
)

var (
	errMissingToken = httperr.E{Status: fiber.StatusUnauthorized, Message: "Missing token"}
	errInvalidToken = httperr.E{Status: fiber.StatusUnauthorized, Message: "Invalid token"}
	errNeedUpgrade  = httperr.E{Status: fiber.StatusBadRequest, Message: "WebSocket upgrade required"}
)

// Hub hands out per-connection activity subscriptions
type Hub interface {
	Subscribe(connID ulid.ULID, userID bson.ObjectID) (*activity.Subscriber, func())
}

// StreamHandlers serves the live activity feed
type StreamHandlers struct {
	hub           Hub
	jwtSecret     string
	maxSessionSec int
}

// NewStreamHandlers creates new activity stream handlers
func NewStreamHandlers(hub Hub, jwtSecret string, maxSessionSec int) *StreamHandlers {
	return &StreamHandlers{
		hub:           hub,
		jwtSecret:     jwtSecret,
		maxSessionSec: maxSessionSec,
	}
}

// WSUpgrade authenticates the ?token= query and lets the upgrade through.
// Browsers cannot set Authorization on a WebSocket handshake.
// @Summary Live profile activity
// @Description Streams like, unlike and profile change events addressed to the caller.
// @Tags activity
// @Param token query string true "JWT"
// @Success 101
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /ws/activity/stream [get]
func (h *StreamHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(errNeedUpgrade)
	}

	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(errMissingToken)
	}

	userID, email, err := h.validateJWT(token)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
		return httperr.Fail(errInvalidToken)
	}

	c.Locals(ctxkeys.UserIDKey, userID.Hex())
	c.Locals(ctxkeys.UserEmailKey, email)
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())

	return c.Next()
}

// session is one live connection
type session struct {
	userID bson.ObjectID
	connID ulid.ULID
}

func (s *session) logArgs(args ...any) []any {
	return append(args, "user_id", s.userID.Hex(), "conn_id", s.connID.String())
}

// WSActivityStream pumps hub events to the client until it disconnects or
// the session budget runs out.
func (h *StreamHandlers) WSActivityStream(c *websocket.Conn) {
	sess, parentCtx, err := newSession(c)
	if err != nil {
		logger.L().Error("rejecting websocket session", "error", err)
		closeConn(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	sub, unsubscribe := h.hub.Subscribe(sess.connID, sess.userID)
	defer unsubscribe()

	logger.L().Info("activity stream opened", sess.logArgs()...)

	expiry := time.NewTimer(time.Duration(h.maxSessionSec) * time.Second)
	defer expiry.Stop()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		h.pump(ctx, c, sess, sub, ping.C, expiry.C)
	}()

	c.SetReadLimit(wsMaxIncomingBytes)
	drainIncoming(c, sess)

	// the conn is recycled once this handler returns
	cancelCtx()
	<-pumped

	logger.L().Info("activity stream closed", sess.logArgs()...)
}

func newSession(c *websocket.Conn) (*session, context.Context, error) {
	raw, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		return nil, nil, errors.New(ctxkeys.UserIDKey + " not found")
	}
	userID, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", ctxkeys.UserIDKey, err)
	}
	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		return nil, nil, errors.New(ctxkeys.ParentCtxKey + " not found")
	}

	return &session{
		userID: userID,
		connID: ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader),
	}, parentCtx, nil
}

// pump is the only writer on c.
func (h *StreamHandlers) pump(ctx context.Context, c *websocket.Conn, sess *session, sub *activity.Subscriber, ping, expiry <-chan time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in activity sender", sess.logArgs("error", r)...)
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := writeEvent(c, ev); err != nil {
				logger.L().Warn("failed to write activity event", sess.logArgs("error", err)...)
				return
			}
		case <-ping:
			if err := c.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout)); err != nil {
				return
			}
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.L().Debug("ping failed", sess.logArgs("error", err)...)
				return
			}
		case <-expiry:
			logger.L().Info("activity stream session timeout", sess.logArgs()...)
			_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout")); err != nil {
				logger.L().Warn("failed to send close message", sess.logArgs("error", err)...)
			}
			closeConn(c)
			return
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(c *websocket.Conn, ev users.Event) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(ev)
}

// drainIncoming reads until the peer goes away. Clients send nothing useful
// but reads are what surface the close frame.
func drainIncoming(c *websocket.Conn, sess *session) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("activity stream read error", sess.logArgs("error", err)...)
			}
			return
		}
	}
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Debug("failed to close websocket connection", "error", err)
	}
}

// validateJWT checks the token the same way the HTTP middleware does.
func (h *StreamHandlers) validateJWT(tokenString string) (bson.ObjectID, string, error) {
	claims, err := parseClaims(tokenString, h.jwtSecret)
	if err != nil {
		return bson.ObjectID{}, "", err
	}

	rawID, ok := claims["id"].(string)
	if !ok {
		return bson.ObjectID{}, "", errors.New("missing id")
	}
	email, ok := claims["email"].(string)
	if !ok {
		return bson.ObjectID{}, "", errors.New("missing email")
	}
	userID, err := bson.ObjectIDFromHex(rawID)
	if err != nil {
		return bson.ObjectID{}, "", fmt.Errorf("invalid id: %w", err)
	}

	return userID, email, nil
}

func parseClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// LogWSConnections logs every upgrade attempt. The user id is only logged
// when the token verifies, so it cannot be spoofed in logs.
func LogWSConnections(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if claims, err := parseClaims(c.Query("token"), jwtSecret); err == nil {
				user, _ = claims["id"].(string)
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
