package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeStockIn    = "stock-in"
	MovementTypeStockOut   = "stock-out"
	MovementTypeAdjustment = "adjustment"
	MovementTypeTransfer   = "transfer"
)

// Movement registro del log de auditoría de inventario (append-only):
// nunca se muta después de creado, solo se consulta para historial.
type Movement struct {
	ID       string          `json:"id"`
	PartID   string          `json:"part_id"`
	Type     string          `json:"type"` // stock-in, stock-out, adjustment, transfer
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Date     time.Time       `json:"date"`
	Notes    string          `json:"notes,omitempty"`
}
