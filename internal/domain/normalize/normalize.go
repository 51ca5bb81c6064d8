// Package normalize reconcilia los nombres de campo heterogéneos del backend
// (snake_case) y de las vistas antiguas (camelCase) en la forma canónica de
// las entidades. Funciones puras, sin efectos: normalizar un objeto ya
// normalizado devuelve el mismo objeto (propiedad cubierta por tests).
package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/taller-pro/internal/domain/entity"
)

// Part normaliza una pieza cruda. Para cada atributo toma la forma presente,
// prefiriendo la del backend (ej. current_stock antes que currentStock), y
// deriva Name de la descripción o, en su defecto, del número de parte.
func Part(raw map[string]any) entity.Part {
	p := entity.Part{
		ID:               str(raw, "id"),
		PartNumber:       str(raw, "part_number", "partNumber"),
		Description:      str(raw, "description"),
		Supplier:         str(raw, "supplier"),
		UnitCost:         dec(raw, "unit_cost", "unitCost"),
		CurrentStock:     integer(raw, "current_stock", "currentStock"),
		MinimumThreshold: integer(raw, "minimum_threshold", "minimumThreshold"),
		Unit:             str(raw, "unit"),
		Location:         str(raw, "location"),
		Notes:            str(raw, "notes"),
	}

	// La referencia de categoría puede llegar como objeto {id, name} o como escalar.
	if obj, ok := raw["category"].(map[string]any); ok {
		p.Category = str(obj, "id")
		p.CategoryName = str(obj, "name")
	} else {
		p.Category = str(raw, "category")
	}
	if p.CategoryName == "" {
		p.CategoryName = str(raw, "category_name", "categoryName")
	}

	p.Name = p.Description
	if p.Name == "" {
		p.Name = p.PartNumber
	}
	// Si el objeto ya venía normalizado con un nombre explícito, se conserva.
	if n := str(raw, "name"); n != "" && p.Name == "" {
		p.Name = n
	}
	return p
}

// Category normaliza una categoría cruda: icono genérico y count 0 cuando
// faltan; subcategorías coercionadas a lista vacía si están ausentes o
// malformadas.
func Category(raw map[string]any) entity.Category {
	c := entity.Category{
		ID:            str(raw, "id"),
		Name:          str(raw, "name"),
		Description:   str(raw, "description"),
		Icon:          str(raw, "icon"),
		Count:         integer(raw, "count"),
		Subcategories: []string{},
	}
	if c.Icon == "" {
		c.Icon = entity.DefaultCategoryIcon
	}
	if subs, ok := raw["subcategories"].([]any); ok {
		for _, s := range subs {
			if name, ok := s.(string); ok {
				c.Subcategories = append(c.Subcategories, name)
			}
		}
	}
	return c
}

// Parts normaliza una colección; entradas nil se descartan.
func Parts(raws []map[string]any) []entity.Part {
	out := make([]entity.Part, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		out = append(out, Part(raw))
	}
	return out
}

// Categories normaliza una colección de categorías.
func Categories(raws []map[string]any) []entity.Category {
	out := make([]entity.Category, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		out = append(out, Category(raw))
	}
	return out
}

// ── Helpers de extracción tolerante ──────────────────────────────────────────

func str(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return trimFloat(s)
		case int:
			return fmt.Sprintf("%d", s)
		case bool:
			return fmt.Sprintf("%t", s)
		}
	}
	return ""
}

func integer(raw map[string]any, keys ...string) int {
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

func dec(raw map[string]any, keys ...string) decimal.Decimal {
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

// trimFloat imprime IDs numéricos sin notación exponencial ni ceros finales.
func trimFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}
