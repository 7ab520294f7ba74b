package accessCodeValidator

import (
	"time"

	accessCodeController "shahadati/controllers/accessCode"
	"shahadati/middleware"

	"github.com/gofiber/fiber/v2"
)

const maxBatchSize = 500

func GenerateAccessCodes() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(accessCodeController.GenerateRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.TemplateID == 0 {
			errors["templateId"] = "Template ID is required!"
		}

		if reqData.Count <= 0 {
			errors["count"] = "Count must be at least 1!"
		} else if reqData.Count > maxBatchSize {
			errors["count"] = "Count must not exceed 500!"
		}

		if reqData.UsageLimit <= 0 {
			errors["usageLimit"] = "Usage limit must be at least 1!"
		}

		if reqData.ExpiresAt != nil && reqData.ExpiresAt.Before(time.Now()) {
			errors["expiresAt"] = "Expiry must be in the future!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedGenerate", reqData)
		return c.Next()
	}
}
