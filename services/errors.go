package services

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/theletterjeff/gin-rummy-scoresheet/scoring"
)

// domainError maps a scoring error to an HTTP response. Anything that is not
// a domain error is a storage failure and comes back as a 500.
func domainError(c *fiber.Ctx, err error) error {
	switch scoring.KindOf(err) {
	case scoring.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case scoring.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case scoring.KindConflict:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
