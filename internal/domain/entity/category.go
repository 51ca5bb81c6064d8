package entity

// DefaultCategoryIcon icono genérico cuando el backend no envía uno.
const DefaultCategoryIcon = "Package"

// Category agrupa piezas del inventario. Count es derivado: siempre igual al
// número de piezas cuya referencia de categoría coincide con este ID,
// recalculado tras cada cambio de la lista de piezas.
type Category struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories"`
}

// Supplier proveedor de piezas; datos de referencia de solo lectura.
type Supplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
