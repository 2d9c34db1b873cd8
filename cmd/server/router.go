package main

import (
	"time"

	"skillmart/cmd/server/handlers"
	activityHandlers "skillmart/cmd/server/handlers/activity"
	authHandlers "skillmart/cmd/server/handlers/auth"
	"skillmart/cmd/server/handlers/httperr"
	mediaHandlers "skillmart/cmd/server/handlers/media"
	usersHandlers "skillmart/cmd/server/handlers/users"
	"skillmart/cmd/server/middlewares"
	"skillmart/internal/config"
	"skillmart/internal/logger"
	util "skillmart/internal/utils"

	_ "skillmart/docs" // Load swagger docs

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RateLimitExpiration = 1 * time.Minute

	// multipart framing on top of the largest accepted file
	uploadBodySlack = 1 << 20
)

// routerDeps are the services the HTTP layer is built over.
type routerDeps struct {
	Auth   authHandlers.AuthService
	Users  usersHandlers.UsersService
	Media  mediaHandlers.MediaService
	Hub    activityHandlers.Hub
	Checks []handlers.Check

	// Collectors are exported on /metrics next to the request metrics.
	Collectors []prometheus.Collector
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, deps routerDeps) *fiber.App {
	v := util.NewValidator()

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
		BodyLimit:    cfg.UploadMaxBytes + uploadBodySlack,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, deps.Collectors...)
	}

	// outside /api so health checks are not request-logged
	health := handlers.Health(deps.Checks...)
	app.Get("/healthz", health)

	app.Get("/docs/*", swagger.HandlerDefault)

	wsH := activityHandlers.NewStreamHandlers(deps.Hub, cfg.JWTSecret, cfg.WSMaxSessionSec)
	app.Use("/ws", activityHandlers.LogWSConnections(cfg.JWTSecret))
	app.Get("/ws/activity/stream", wsH.WSUpgrade, websocket.New(wsH.WSActivityStream))

	var api fiber.Router
	if cfg.RequestLoggingEnabled {
		api = app.Group("/api", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		api = app.Group("/api")
		logger.L().Info("request logging disabled")
	}
	api.Get("/health", health)

	user := api.Group("/user")
	jwt := middlewares.JWT(cfg)
	limited := func() fiber.Handler {
		return middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration)
	}

	authH := authHandlers.NewHandlers(deps.Auth, v)
	usersH := usersHandlers.NewHandlers(deps.Users, v)
	mediaH := mediaHandlers.NewHandlers(deps.Media, v, cfg.UploadMaxBytes)

	user.Post("/register", authH.Register)
	user.Post("/login", limited(), authH.Login)
	user.Post("/send-reset-otp", limited(), authH.SendResetOTP)
	user.Post("/reset-password-otp", limited(), authH.ResetPasswordWithOTP)

	user.Put("/update/:id", jwt, usersH.UpdateProfile)
	user.Get("/upload-url", jwt, mediaH.UploadURL)
	user.Post("/upload-file", jwt, mediaH.UploadFile)
	user.Get("/image", mediaH.Image)
	user.Post("/upload/:id", jwt, usersH.AddSection)
	user.Delete("/section/:userId/:sectionId", jwt, usersH.DeleteSection)
	user.Put("/like/:id", jwt, usersH.ToggleLike)
	user.Get("/liked", jwt, usersH.ListLiked)
	user.Post("/suggest", usersH.Suggest)
	user.Get("/search", jwt, usersH.Search)
	user.Get("/me", jwt, usersH.Me)

	// must stay last: it would shadow every static GET above
	user.Get("/:id", usersH.Get)

	return app
}
