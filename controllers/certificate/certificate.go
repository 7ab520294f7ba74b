package certificateController

import (
	"errors"
	"fmt"
	"log"

	"shahadati/database"
	"shahadati/issuance"
	"shahadati/ledger"
	"shahadati/middleware"
	"shahadati/minter"
	"shahadati/models"

	"github.com/gofiber/fiber/v2"
)

// service is wired once at startup from main
var service *issuance.Service

// Init injects the issuance service used by the handlers
func Init(svc *issuance.Service) {
	service = svc
}

// RedeemCertificate exchanges a valid access code for a personalized certificate
func RedeemCertificate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRedeem").(*issuance.RedeemRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	result, err := service.Redeem(*reqData)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Access code not found!", nil)
		case errors.Is(err, ledger.ErrExpired):
			return middleware.JsonResponse(c, fiber.StatusGone, false, "Access code has expired!", nil)
		case errors.Is(err, ledger.ErrDisabled):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access code has been disabled!", nil)
		case errors.Is(err, ledger.ErrExhausted):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Access code usage limit reached!", nil)
		default:
			log.Printf("Redemption failed for code %s: %v", reqData.Code, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate issued successfully!", result)
}

// VerifyCertificate recomputes the verification hash for a certificate
// number and reports whether the record is authentic
func VerifyCertificate(c *fiber.Ctx) error {
	number := c.Params("number")

	var cert models.Certificate
	if err := database.Database.Db.Where("certificate_number = ? AND is_deleted = ?", number, false).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	expected := minter.VerificationHash(
		cert.CertificateNumber,
		cert.StudentName,
		fmt.Sprint(cert.TemplateID),
		fmt.Sprint(cert.AccessCodeID),
		cert.IssuedAt,
	)
	valid := expected == cert.VerificationHash

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verification completed.", fiber.Map{
		"valid":             valid,
		"certificateNumber": cert.CertificateNumber,
		"studentName":       cert.StudentName,
		"issuedAt":          cert.IssuedAt,
	})
}

// GetCertificate returns a single certificate record by its public id
func GetCertificate(c *fiber.Ctx) error {
	id := c.Params("id")

	var cert models.Certificate
	if err := database.Database.Db.Where("certificate_id = ? AND is_deleted = ?", id, false).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", cert)
}

// ListIssuedCertificates lists certificates issued against the caller's templates
func ListIssuedCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var templateIDs []uint
	if err := database.Database.Db.Model(&models.CertificateTemplate{}).
		Where("created_by = ? AND is_deleted = ?", userID, false).
		Pluck("id", &templateIDs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	var certificates []models.Certificate
	if len(templateIDs) > 0 {
		if err := database.Database.Db.Where("template_id IN ? AND is_deleted = ?", templateIDs, false).
			Order("issued_at desc").Find(&certificates).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": certificates,
		"total":        len(certificates),
	})
}
