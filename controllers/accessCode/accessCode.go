package accessCodeController

import (
	"log"
	"strings"
	"time"

	"shahadati/database"
	"shahadati/ledger"
	"shahadati/middleware"
	"shahadati/models"
	"shahadati/security"

	"github.com/gofiber/fiber/v2"
)

// GenerateRequest is the validated payload for batch code generation
type GenerateRequest struct {
	TemplateID uint       `json:"templateId"`
	Count      int        `json:"count"`
	UsageLimit int        `json:"usageLimit"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	Note       string     `json:"note"`
}

// GenerateAccessCodes batch-creates shareable codes for a template
func GenerateAccessCodes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedGenerate").(*GenerateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Template must exist and belong to the caller
	var tmpl models.CertificateTemplate
	if err := db.Where("id = ? AND created_by = ? AND is_deleted = ?", reqData.TemplateID, userID, false).First(&tmpl).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Template not found!", nil)
	}

	codes := make([]models.AccessCode, 0, reqData.Count)
	for i := 0; i < reqData.Count; i++ {
		token, err := security.GenerateToken(5)
		if err != nil {
			log.Printf("Error generating access code token: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate codes!", nil)
		}
		codes = append(codes, models.AccessCode{
			Code:       strings.ToUpper(token),
			Status:     models.AccessCodeActive,
			TemplateID: reqData.TemplateID,
			CreatedBy:  userID,
			UsageLimit: reqData.UsageLimit,
			ExpiresAt:  reqData.ExpiresAt,
			Note:       reqData.Note,
		})
	}

	if err := db.Create(&codes).Error; err != nil {
		log.Printf("Error saving access codes: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate codes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Access codes generated successfully!", fiber.Map{
		"codes": codes,
		"total": len(codes),
	})
}

// ListAccessCodes returns the caller's codes, newest first
func ListAccessCodes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var codes []models.AccessCode
	if err := database.Database.Db.Where("created_by = ?", userID).Order("created_at desc").Find(&codes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch access codes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access codes fetched successfully!", fiber.Map{
		"codes": codes,
		"total": len(codes),
	})
}

// DisableAccessCode force-retires a code
func DisableAccessCode(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	code := c.Params("code")

	var ac models.AccessCode
	if err := database.Database.Db.Where("code = ? AND created_by = ?", code, userID).First(&ac).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Access code not found!", nil)
	}

	l := ledger.New(database.Database.Db)
	if err := l.Disable(code); err != nil {
		log.Printf("Error disabling access code %s: %v", code, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to disable access code!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access code disabled successfully!", nil)
}

// CheckAccessCode reports whether a code can currently be redeemed
func CheckAccessCode(c *fiber.Ctx) error {
	code := c.Params("code")

	l := ledger.New(database.Database.Db)
	result, err := l.Validate(code)
	if err != nil {
		log.Printf("Error validating access code %s: %v", code, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to validate access code!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access code checked.", result)
}
