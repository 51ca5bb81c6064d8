// Package inventory implementa el store canónico de inventario del taller:
// piezas, categorías, proveedores y el log de movimientos, junto con las
// vistas derivadas (alertas de stock bajo y conteos por categoría). El estado
// duradero vive en el backend remoto; este store es la capa de consistencia
// en memoria que consume la UI.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/domain/entity"
	"github.com/tu-usuario/taller-pro/internal/domain/normalize"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// Caller puerto hacia el gateway HTTP.
type Caller interface {
	CallJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error)
	Download(ctx context.Context, path string) ([]byte, error)
}

// Notifier canal de toasts.
type Notifier interface {
	Toast(message string, severity notify.Severity, duration time.Duration)
}

// Store estado de inventario protegido por RWMutex. La lista de piezas solo
// se reemplaza completa (contrato de re-sync): los consumidores la tratan
// como snapshot de solo lectura y mutan únicamente a través de operaciones
// del store.
type Store struct {
	mu       sync.RWMutex
	gw       Caller
	notifier Notifier
	log      *logger.Logger

	parts      []entity.Part
	categories []entity.Category
	suppliers  []entity.Supplier
	movements  []entity.Movement
	alerts     []entity.LowStockAlert
}

// NewStore construye el store.
func NewStore(gw Caller, notifier Notifier, log *logger.Logger) *Store {
	return &Store{gw: gw, notifier: notifier, log: log}
}

// ── Fetch ─────────────────────────────────────────────────────────────────────

// FetchAll trae piezas, categorías y proveedores en paralelo. Cada fuente
// falla aislada: un fetch rechazado deja esa colección vacía con un warn,
// sin bloquear ni invalidar las otras.
func (s *Store) FetchAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		parts, err := s.fetchParts(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("fetch de piezas fallido")
			parts = []entity.Part{}
		}
		s.setParts(parts)
	}()

	go func() {
		defer wg.Done()
		cats, err := s.fetchCategories(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("fetch de categorías fallido")
			cats = []entity.Category{}
		}
		s.mu.Lock()
		s.categories = cats
		s.recomputeLocked()
		s.mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		sups, err := s.fetchSuppliers(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("fetch de proveedores fallido")
			sups = []entity.Supplier{}
		}
		s.mu.Lock()
		s.suppliers = sups
		s.mu.Unlock()
	}()

	wg.Wait()
}

// fetchParts pide la lista completa. El backend moderno expone la ruta con
// barra final; quedan despliegues antiguos sin ella, de ahí el fallback.
func (s *Store) fetchParts(ctx context.Context) ([]entity.Part, error) {
	raw, err := s.gw.CallJSON(ctx, "GET", "/inventory/parts/", nil)
	if err != nil {
		raw, err = s.gw.CallJSON(ctx, "GET", "/inventory/parts", nil)
		if err != nil {
			return nil, err
		}
	}
	return decodeParts(raw)
}

func (s *Store) fetchCategories(ctx context.Context) ([]entity.Category, error) {
	raw, err := s.gw.CallJSON(ctx, "GET", "/inventory/categories/", nil)
	if err != nil {
		return nil, err
	}
	var raws []map[string]any
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("decode de categorías: %w", err)
	}
	return normalize.Categories(raws), nil
}

func (s *Store) fetchSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	raw, err := s.gw.CallJSON(ctx, "GET", "/suppliers/", nil)
	if err != nil {
		return nil, err
	}
	var sups []entity.Supplier
	if err := json.Unmarshal(raw, &sups); err != nil {
		return nil, fmt.Errorf("decode de proveedores: %w", err)
	}
	return sups, nil
}

// Search re-consulta las piezas filtradas en servidor. Query vacía trae el
// conjunto completo. Contrato: nunca devuelve error — un fallo produce lista
// vacía y deja el estado intacto.
func (s *Store) Search(ctx context.Context, query string) []entity.Part {
	path := "/inventory/parts"
	if query != "" {
		path += "?search=" + url.QueryEscape(query)
	}
	raw, err := s.gw.CallJSON(ctx, "GET", path, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("búsqueda de piezas fallida")
		return []entity.Part{}
	}
	parts, err := decodeParts(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("decode de búsqueda fallido")
		return []entity.Part{}
	}
	s.setParts(parts)
	return parts
}

// FetchMovements trae el log reciente de transacciones de inventario.
func (s *Store) FetchMovements(ctx context.Context) ([]entity.Movement, error) {
	raw, err := s.gw.CallJSON(ctx, "GET", "/inventory/transactions", nil)
	if err != nil {
		return nil, err
	}
	var movs []entity.Movement
	if err := json.Unmarshal(raw, &movs); err != nil {
		return nil, fmt.Errorf("decode de transacciones: %w", err)
	}
	s.mu.Lock()
	s.movements = movs
	s.mu.Unlock()
	return movs, nil
}

// History lista de movimientos de una pieza (modal de historial).
// Solo lectura: no muta el estado del store.
func (s *Store) History(ctx context.Context, partID string) ([]entity.Movement, error) {
	raw, err := s.gw.CallJSON(ctx, "GET", "/inventory/parts/"+partID+"/history", nil)
	if err != nil {
		return nil, err
	}
	var movs []entity.Movement
	if err := json.Unmarshal(raw, &movs); err != nil {
		return nil, fmt.Errorf("decode de historial: %w", err)
	}
	return movs, nil
}

// ── Mutaciones ────────────────────────────────────────────────────────────────

// Create crea una pieza y re-trae la lista completa: nunca se parchea en
// local asumiendo éxito, para no divergir de los campos derivados del
// servidor (timestamps de auditoría, etc.).
func (s *Store) Create(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	data, err := s.gw.CallJSON(ctx, "POST", "/inventory/parts/", payload)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshParts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("re-sync de piezas tras crear fallido")
	}
	s.notifier.Toast("Pieza creada correctamente", notify.SeveritySuccess, 0)
	return data, nil
}

// Update actualiza parcialmente una pieza (PATCH) y re-sincroniza.
func (s *Store) Update(ctx context.Context, id string, payload map[string]any) (json.RawMessage, error) {
	data, err := s.gw.CallJSON(ctx, "PATCH", "/inventory/parts/"+id, payload)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshParts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("re-sync de piezas tras actualizar fallido")
	}
	s.notifier.Toast("Pieza actualizada correctamente", notify.SeveritySuccess, 0)
	return data, nil
}

// ReorderInput parámetros de una reposición manual de stock.
type ReorderInput struct {
	PartID   string `json:"partId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// Reorder incrementa stock en servidor. Cantidad no positiva se rechaza en
// local, con toast, antes de cualquier llamada al gateway.
func (s *Store) Reorder(ctx context.Context, in ReorderInput) error {
	if in.Quantity <= 0 {
		s.notifier.Toast("La cantidad a reponer debe ser mayor que cero", notify.SeverityError, 0)
		return domain.ErrInvalidInput
	}
	if _, err := s.gw.CallJSON(ctx, "POST", "/inventory/reorder", in); err != nil {
		return err
	}
	if err := s.RefreshParts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("re-sync de piezas tras reponer fallido")
	}
	s.notifier.Toast("Solicitud de reposición enviada", notify.SeveritySuccess, 0)
	return nil
}

// AssignInput parámetros de asignación de una pieza a una orden de trabajo.
type AssignInput struct {
	PartID   string `json:"partId"`
	JobID    string `json:"jobId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// AssignToJob descuenta stock en servidor ligado a una orden; al éxito
// re-trae piezas y transacciones (el log crece con la salida).
func (s *Store) AssignToJob(ctx context.Context, in AssignInput) error {
	if in.Quantity <= 0 {
		s.notifier.Toast("La cantidad a asignar debe ser mayor que cero", notify.SeverityError, 0)
		return domain.ErrInvalidInput
	}
	if _, err := s.gw.CallJSON(ctx, "POST", "/inventory/assign-to-job", in); err != nil {
		return err
	}
	if err := s.RefreshParts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("re-sync de piezas tras asignar fallido")
	}
	if _, err := s.FetchMovements(ctx); err != nil {
		s.log.Warn().Err(err).Msg("re-sync de transacciones tras asignar fallido")
	}
	s.notifier.Toast("Pieza asignada correctamente", notify.SeveritySuccess, 0)
	return nil
}

// Export descarga el CSV de piezas del backend. El nombre sigue la convención
// parts-export-<fecha ISO>.csv de la UI original.
func (s *Store) Export(ctx context.Context) (string, []byte, error) {
	data, err := s.gw.Download(ctx, "/inventory/export")
	if err != nil {
		return "", nil, err
	}
	filename := "parts-export-" + time.Now().Format("2006-01-02") + ".csv"
	s.notifier.Toast("Piezas exportadas correctamente", notify.SeveritySuccess, 0)
	return filename, data, nil
}

// ── Puertos para el ledger de ventas ─────────────────────────────────────────

// PartByNumber busca una pieza por número de parte en el snapshot actual.
func (s *Store) PartByNumber(partNumber string) (entity.Part, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.parts {
		if p.PartNumber == partNumber {
			return p, true
		}
	}
	return entity.Part{}, false
}

// PartByDescription empareja por inclusión de subcadena, insensible a
// mayúsculas y tildes (fold Unicode). Es el fallback ambiguo y best-effort
// que usa la restauración de stock al borrar una venta.
func (s *Store) PartByDescription(name string) (entity.Part, bool) {
	needle := foldText(name)
	if needle == "" {
		return entity.Part{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.parts {
		if strings.Contains(foldText(p.Description), needle) {
			return p, true
		}
	}
	return entity.Part{}, false
}

// AdjustStock aplica un delta optimista al stock local de una pieza.
// Una deducción que dejaría el stock negativo se rechaza sin mutar nada.
func (s *Store) AdjustStock(partNumber string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parts {
		if s.parts[i].PartNumber != partNumber {
			continue
		}
		next := s.parts[i].CurrentStock + delta
		if next < 0 {
			return &domain.InsufficientStockError{
				PartNumber: partNumber,
				Requested:  -delta,
				Available:  s.parts[i].CurrentStock,
			}
		}
		s.parts[i].CurrentStock = next
		s.recomputeLocked()
		return nil
	}
	return domain.ErrNotFound
}

// RefreshParts re-trae la lista completa de piezas (contrato de re-sync).
func (s *Store) RefreshParts(ctx context.Context) error {
	parts, err := s.fetchParts(ctx)
	if err != nil {
		return err
	}
	s.setParts(parts)
	return nil
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// Parts devuelve una copia del snapshot de piezas.
func (s *Store) Parts() []entity.Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Part, len(s.parts))
	copy(out, s.parts)
	return out
}

// Categories devuelve una copia de las categorías con conteos al día.
func (s *Store) Categories() []entity.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Suppliers devuelve una copia de los proveedores.
func (s *Store) Suppliers() []entity.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Supplier, len(s.suppliers))
	copy(out, s.suppliers)
	return out
}

// Movements devuelve una copia del log reciente de transacciones.
func (s *Store) Movements() []entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

// Alerts devuelve las alertas de stock bajo vigentes.
func (s *Store) Alerts() []entity.LowStockAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.LowStockAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// ── Derivados ─────────────────────────────────────────────────────────────────

// setParts reemplaza la lista completa y recalcula las vistas derivadas.
func (s *Store) setParts(parts []entity.Part) {
	s.mu.Lock()
	s.parts = parts
	s.recomputeLocked()
	s.mu.Unlock()
}

// recomputeLocked recalcula alertas de stock bajo y conteos por categoría.
// Se llama tras TODO cambio de la lista de piezas: ningún derivado obsoleto
// es observable después de una mutación completada.
func (s *Store) recomputeLocked() {
	alerts := make([]entity.LowStockAlert, 0)
	counts := make(map[string]int, len(s.categories))
	for _, p := range s.parts {
		if p.CurrentStock > 0 && p.CurrentStock <= p.MinimumThreshold {
			alerts = append(alerts, entity.LowStockAlert{
				ID:               p.ID,
				PartNumber:       p.PartNumber,
				Description:      p.Description,
				CurrentStock:     p.CurrentStock,
				MinimumThreshold: p.MinimumThreshold,
			})
		}
		if p.Category != "" {
			counts[p.Category]++
		}
	}
	s.alerts = alerts
	for i := range s.categories {
		s.categories[i].Count = counts[s.categories[i].ID]
	}
}

// decodeParts decodifica la respuesta cruda y la normaliza.
func decodeParts(raw json.RawMessage) ([]entity.Part, error) {
	var raws []map[string]any
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("decode de piezas: %w", err)
	}
	return normalize.Parts(raws), nil
}

// foldText pasa a minúsculas y elimina marcas diacríticas ("Fricción" y
// "friccion" se consideran iguales al emparejar descripciones).
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
