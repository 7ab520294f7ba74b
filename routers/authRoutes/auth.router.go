package authRoutes

import (
	controllers "shahadati/controllers/auth"
	validators "shahadati/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up instructor authentication routes
func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", validators.Signup(), controllers.Signup)
	authGroup.Post("/login", validators.Login(), controllers.Login)
}
