package templateController

import (
	"log"
	"strconv"

	"shahadati/database"
	"shahadati/middleware"
	"shahadati/models"
	"shahadati/utils"

	"github.com/gofiber/fiber/v2"
)

// UploadTemplate stores a certificate background and its name placement
func UploadTemplate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	name := c.FormValue("name")
	if name == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Template name is required!", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Template file is required!", nil)
	}

	filePath, err := utils.SaveUploadedFile(file, "./uploads/templates")
	if err != nil {
		log.Printf("Error saving template file: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save template file!", nil)
	}

	nameX, _ := strconv.ParseFloat(c.FormValue("nameX", "0"), 64)
	nameY, _ := strconv.ParseFloat(c.FormValue("nameY", "0"), 64)
	fontSize, _ := strconv.Atoi(c.FormValue("nameFontSize", "32"))

	tmpl := models.CertificateTemplate{
		Name:         name,
		FilePath:     filePath,
		FileURL:      utils.GetFileURL(filePath),
		CreatedBy:    userID,
		NameX:        nameX,
		NameY:        nameY,
		NameFontSize: fontSize,
		NameColor:    c.FormValue("nameColor", "#000000"),
	}

	if err := database.Database.Db.Create(&tmpl).Error; err != nil {
		log.Printf("Error saving template: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Template uploaded successfully!", tmpl)
}

// ListTemplates returns the caller's templates
func ListTemplates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var templates []models.CertificateTemplate
	if err := database.Database.Db.Where("created_by = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").Find(&templates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch templates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Templates fetched successfully!", fiber.Map{
		"templates": templates,
		"total":     len(templates),
	})
}

// DeleteTemplate soft-deletes a template; existing certificates keep
// referencing it
func DeleteTemplate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id := c.Params("id")

	var tmpl models.CertificateTemplate
	if err := database.Database.Db.Where("id = ? AND created_by = ? AND is_deleted = ?", id, userID, false).First(&tmpl).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Template not found!", nil)
	}

	tmpl.IsDeleted = true
	if err := database.Database.Db.Save(&tmpl).Error; err != nil {
		log.Printf("Error deleting template: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Template deleted successfully!", nil)
}
