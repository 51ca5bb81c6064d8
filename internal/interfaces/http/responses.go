package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/taller-pro/internal/application/dto"
	"github.com/tu-usuario/taller-pro/internal/domain"
)

// errorResponse mapea la taxonomía de errores de dominio a códigos HTTP.
func errorResponse(c *fiber.Ctx, err error) error {
	var (
		gwErr    *domain.GatewayError
		stockErr *domain.InsufficientStockError
		saleErr  *domain.StockValidationError
	)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "AUTH_REQUIRED", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.As(err, &saleErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STOCK_VALIDATION", Message: err.Error()})
	case errors.As(err, &gwErr):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "GATEWAY", Message: gwErr.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
