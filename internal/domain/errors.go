package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	// ErrAuthRequired indica que la operación exige una sesión activa;
	// se rechaza antes de cualquier llamada de red.
	ErrAuthRequired = errors.New("sesión requerida")
)

// GatewayError error de red/HTTP contra el backend remoto, con el mensaje
// legible extraído del cuerpo de la respuesta ({message}, {non_field_errors}
// o el cuerpo crudo). Status es 0 cuando la petición ni siquiera llegó.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// InsufficientStockError rechazo local de una operación que dejaría el stock
// de una pieza en negativo. Nunca se aplica la mutación parcialmente.
type InsufficientStockError struct {
	PartNumber string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d",
		e.PartNumber, e.Requested, e.Available)
}

// StockValidationError rechazo de la pre-validación de una venta, antes de
// cualquier I/O de red. Missing indica que la pieza no existe en el snapshot.
type StockValidationError struct {
	PartNumber string
	Requested  int
	Available  int
	Missing    bool
}

func (e *StockValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("venta inválida: la pieza %s no existe en el inventario", e.PartNumber)
	}
	return fmt.Sprintf("venta inválida: stock insuficiente para %s (solicitado %d, disponible %d)",
		e.PartNumber, e.Requested, e.Available)
}
