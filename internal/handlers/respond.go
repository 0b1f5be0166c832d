package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shopnpost/internal/models"
)

// statusForKind maps the domain error taxonomy onto HTTP statuses in one
// place, so handlers never sniff error strings.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidationFailed:
		return fiber.StatusBadRequest
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindInsufficientStock:
		return fiber.StatusBadRequest
	case models.KindInvalidState:
		return fiber.StatusBadRequest
	case models.KindForbidden:
		return fiber.StatusForbidden
	case models.KindPaymentProvider:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError renders a failure as a structured body with a stable error
// kind. Non-domain errors become opaque 500s: no internals leak to clients.
func respondError(c *fiber.Ctx, err error) error {
	var de *models.DomainError
	if errors.As(err, &de) {
		return c.Status(statusForKind(de.Kind)).JSON(fiber.Map{
			"error":   string(de.Kind),
			"message": de.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   string(models.KindUnexpected),
		"message": "internal server error",
	})
}

// respondValidationErrors renders struct-validation failures field by field.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		errorMessages := make(map[string]string)
		for _, e := range verrs {
			errorMessages[e.Field()] = "failed on the '" + e.Tag() + "' tag"
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   string(models.KindValidationFailed),
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return respondError(c, err)
}

// paginationEnvelope is the listing metadata shape shared by order listings.
func paginationEnvelope(page, limit int, total int64) fiber.Map {
	if limit < 1 {
		limit = 1
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return fiber.Map{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}
