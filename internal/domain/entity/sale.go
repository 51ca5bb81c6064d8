package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// WalkInCustomer nombre mostrado cuando la venta no tiene cliente asociado.
const WalkInCustomer = "walk-in"

// SaleItem línea de una venta. El backend y las vistas antiguas usan nombres
// de campo distintos para el mismo atributo (part_number/partNumber,
// unit/unit_price), así que el decode es tolerante con ambas formas.
type SaleItem struct {
	PartNumber string          `json:"part_number"`
	Name       string          `json:"name,omitempty"`
	Qty        int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"unit"`
}

// UnmarshalJSON acepta part_number o partNumber, y unit, unit_price o
// unitPrice; prefiere siempre la forma del backend (snake_case).
func (it *SaleItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.PartNumber = pickString(raw, "part_number", "partNumber")
	it.Name = pickString(raw, "name")
	it.Qty = pickInt(raw, "qty", "quantity")
	it.UnitPrice = pickDecimal(raw, "unit", "unit_price", "unitPrice")
	return nil
}

// Subtotal devuelve qty × precio unitario.
func (it SaleItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Sale venta registrada. Total es derivado de Items y nunca se confía al
// valor enviado por el caller; el ledger lo recalcula siempre.
type Sale struct {
	ID           string          `json:"id"`
	Date         string          `json:"date,omitempty"`
	CustomerID   string          `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Items        []SaleItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

// UnmarshalJSON tolera customer como objeto {id,name}, como string o ausente
// (en cuyo caso la venta queda como walk-in).
func (s *Sale) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID       any             `json:"id"`
		Date     string          `json:"date"`
		Customer json.RawMessage `json:"customer"`
		CustomerID   any         `json:"customer_id"`
		CustomerName string      `json:"customer_name"`
		Items    []SaleItem      `json:"items"`
		Total    decimal.Decimal `json:"total"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	s.ID = anyToString(a.ID)
	s.Date = a.Date
	s.CustomerID = anyToString(a.CustomerID)
	s.CustomerName = a.CustomerName
	s.Items = a.Items
	s.Total = a.Total

	if len(a.Customer) > 0 && string(a.Customer) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(a.Customer, &obj); err == nil {
			if s.CustomerID == "" {
				s.CustomerID = pickString(obj, "id")
			}
			if s.CustomerName == "" {
				s.CustomerName = pickString(obj, "name")
			}
		} else {
			var name string
			if err := json.Unmarshal(a.Customer, &name); err == nil && s.CustomerName == "" {
				s.CustomerName = name
			}
		}
	}
	if s.CustomerName == "" {
		s.CustomerName = WalkInCustomer
	}
	return nil
}

// ComputeTotal recalcula el total como Σ qty×unit de los items.
func (s Sale) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ── Helpers de decode tolerante ───────────────────────────────────────────────

func pickString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			if s := anyToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func pickInt(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case string:
			var parsed int
			if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func pickDecimal(raw map[string]any, keys ...string) decimal.Decimal {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n)
		case string:
			if d, err := decimal.NewFromString(n); err == nil {
				return d
			}
		case int:
			return decimal.NewFromInt(int64(n))
		}
	}
	return decimal.Zero
}

func anyToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		// IDs numéricos del backend (Django) llegan como float64 en el decode genérico
		return decimal.NewFromFloat(s).String()
	default:
		return fmt.Sprintf("%v", s)
	}
}
