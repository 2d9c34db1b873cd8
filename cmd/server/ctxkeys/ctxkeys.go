// Package ctxkeys names the fiber.Ctx locals shared by middlewares and handlers.
package ctxkeys

const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	// ParentCtxKey carries the request context into the WebSocket handler.
	ParentCtxKey = "parentCtx"
)
