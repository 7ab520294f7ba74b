package certificateValidator

import (
	"strings"

	"shahadati/issuance"
	"shahadati/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func RedeemCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Code         string            `json:"code"`
			StudentName  string            `json:"studentName"`
			StudentEmail string            `json:"studentEmail"`
			CustomFields map[string]string `json:"customFields"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Validate Code
		if strings.TrimSpace(reqData.Code) == "" {
			errors["code"] = "Access code is required!"
		}

		// Validate Student Name
		name := strings.TrimSpace(reqData.StudentName)
		if name == "" {
			errors["studentName"] = "Student name is required!"
		} else if len(name) < 2 {
			errors["studentName"] = "Student name must be at least 2 characters long!"
		} else if len(name) > 255 {
			errors["studentName"] = "Student name must not exceed 255 characters!"
		}

		// Validate Student Email (optional)
		if reqData.StudentEmail != "" {
			if err := validate.Var(reqData.StudentEmail, "email"); err != nil {
				errors["studentEmail"] = "Email must be a valid email address!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRedeem", &issuance.RedeemRequest{
			Code:         strings.TrimSpace(reqData.Code),
			StudentName:  name,
			StudentEmail: strings.TrimSpace(reqData.StudentEmail),
			CustomFields: reqData.CustomFields,
		})
		return c.Next()
	}
}
