package handlers

import (
	"premscales/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports liveness of the service and its backing stores.
func HealthCheck(c *fiber.Ctx) error {
	status := fiber.StatusOK
	checks := fiber.Map{
		"database": "ok",
		"cache":    "ok",
	}

	if repositories.DB == nil {
		checks["database"] = "not initialized"
		status = fiber.StatusServiceUnavailable
	} else if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		checks["database"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	if repositories.CacheService == nil {
		checks["cache"] = "disabled"
	} else if err := repositories.CacheService.Ping(c.Context()); err != nil {
		checks["cache"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
	})
}
