package certificateRoutes

import (
	controllers "shahadati/controllers/certificate"
	"shahadati/middleware"
	validators "shahadati/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificateRoutes sets up public redemption and verification routes
func SetupCertificateRoutes(app *fiber.App) {
	certGroup := app.Group("/certificate")

	// Student-facing: redeem a code, look up and verify certificates
	certGroup.Post("/redeem", validators.RedeemCertificate(), controllers.RedeemCertificate)
	certGroup.Get("/verify/:number", controllers.VerifyCertificate)
	certGroup.Get("/:id", controllers.GetCertificate)

	// Instructor-facing: certificates issued against own templates
	app.Get("/instructor/certificates", middleware.JWTMiddleware, controllers.ListIssuedCertificates)
}
