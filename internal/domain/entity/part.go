package entity

import "github.com/shopspring/decimal"

// Part representa una pieza/repuesto del inventario del taller, en su forma
// canónica (los nombres de campo del backend se reconcilian en normalize).
// CurrentStock nunca es negativo: toda deducción se valida antes de mutar.
type Part struct {
	ID               string          `json:"id"`
	PartNumber       string          `json:"part_number"`
	Description      string          `json:"description"`
	Name             string          `json:"name"` // derivado: descripción o número de parte
	Category         string          `json:"category"`
	CategoryName     string          `json:"category_name,omitempty"`
	Supplier         string          `json:"supplier,omitempty"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	CurrentStock     int             `json:"current_stock"`
	MinimumThreshold int             `json:"minimum_threshold"`
	Unit             string          `json:"unit,omitempty"`
	Location         string          `json:"location,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// LowStockAlert vista derivada: existe sii 0 < CurrentStock <= MinimumThreshold.
// Una pieza con stock 0 está "agotada", que es un estado distinto y no alerta.
type LowStockAlert struct {
	ID               string `json:"id"`
	PartNumber       string `json:"part_number"`
	Description      string `json:"description"`
	CurrentStock     int    `json:"current_stock"`
	MinimumThreshold int    `json:"minimum_threshold"`
}
