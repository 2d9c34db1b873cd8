// Package docs Skillmart API
//
// @title  Skillmart API
// @version 1.0.0
// @description Service marketplace: provider profiles, work samples, likes and search.
// @host      localhost:8080
// @BasePath /api/user
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "skillmart/cmd/server/handlers/httperr"
	_ "skillmart/internal/services/auth"
	_ "skillmart/internal/services/media"
	_ "skillmart/internal/services/users"
)
