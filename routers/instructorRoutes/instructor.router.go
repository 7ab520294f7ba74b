package instructorRoutes

import (
	accessCodeControllers "shahadati/controllers/accessCode"
	templateControllers "shahadati/controllers/template"
	"shahadati/middleware"
	accessCodeValidators "shahadati/validators/accessCode"

	"github.com/gofiber/fiber/v2"
)

// SetupInstructorRoutes sets up template and access-code management routes
func SetupInstructorRoutes(app *fiber.App) {
	group := app.Group("/instructor", middleware.JWTMiddleware)

	// Templates
	group.Post("/templates", templateControllers.UploadTemplate)
	group.Get("/templates", templateControllers.ListTemplates)
	group.Delete("/templates/:id", templateControllers.DeleteTemplate)

	// Access codes
	group.Post("/codes", accessCodeValidators.GenerateAccessCodes(), accessCodeControllers.GenerateAccessCodes)
	group.Get("/codes", accessCodeControllers.ListAccessCodes)
	group.Get("/codes/:code/check", accessCodeControllers.CheckAccessCode)
	group.Post("/codes/:code/disable", accessCodeControllers.DisableAccessCode)
}
