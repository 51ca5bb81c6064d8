// Package sales implementa el ledger de ventas del taller. Valida cada venta
// contra el snapshot actual de inventario ANTES de tocar la red, recalcula
// siempre el total a partir de los items y coordina los ajustes optimistas
// de stock con el store de inventario a través de puertos explícitos, de
// modo que el ledger es testeable con un inventario falso.
package sales

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/domain/entity"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// SnapshotProvider vista de solo lectura del inventario actual.
type SnapshotProvider interface {
	PartByNumber(partNumber string) (entity.Part, bool)
	// PartByDescription es el emparejamiento difuso (subcadena, insensible a
	// mayúsculas y tildes) usado solo por la restauración best-effort.
	PartByDescription(name string) (entity.Part, bool)
}

// Mutator ajuste optimista de stock; rechaza deducciones que dejarían
// el stock negativo.
type Mutator interface {
	AdjustStock(partNumber string, delta int) error
}

// Resyncer re-sincronización de piezas desde el backend.
type Resyncer interface {
	RefreshParts(ctx context.Context) error
}

// Session guard de autenticación: sin sesión no hay I/O de red.
type Session interface {
	Authenticated() bool
}

// Caller puerto hacia el gateway HTTP.
type Caller interface {
	CallJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Notifier canal de toasts.
type Notifier interface {
	Toast(message string, severity notify.Severity, duration time.Duration)
}

// Ledger estado de ventas (lista ordenada, id único) más el total derivado.
type Ledger struct {
	mu       sync.RWMutex
	gw       Caller
	inv      SnapshotProvider
	mut      Mutator
	resync   Resyncer
	sess     Session
	notifier Notifier
	log      *logger.Logger

	sales []entity.Sale
}

// NewLedger construye el ledger con sus puertos.
func NewLedger(
	gw Caller,
	inv SnapshotProvider,
	mut Mutator,
	resync Resyncer,
	sess Session,
	notifier Notifier,
	log *logger.Logger,
) *Ledger {
	return &Ledger{gw: gw, inv: inv, mut: mut, resync: resync, sess: sess, notifier: notifier, log: log}
}

// SaleInput payload de creación/edición de una venta. El total enviado por
// el caller se ignora siempre: se recalcula de los items.
type SaleInput struct {
	Date         string            `json:"date,omitempty"`
	CustomerID   string            `json:"customer_id,omitempty"`
	CustomerName string            `json:"customer_name,omitempty"`
	Items        []entity.SaleItem `json:"items"`
}

// FetchAll trae las ventas del backend. Requiere sesión.
func (l *Ledger) FetchAll(ctx context.Context) error {
	if !l.sess.Authenticated() {
		return domain.ErrAuthRequired
	}
	raw, err := l.gw.CallJSON(ctx, "GET", "/sales/", nil)
	if err != nil {
		return err
	}
	var sales []entity.Sale
	if err := json.Unmarshal(raw, &sales); err != nil {
		return err
	}
	l.mu.Lock()
	l.sales = sales
	l.mu.Unlock()
	return nil
}

// Create registra una venta nueva. Pre-check local de stock por item (sin
// tocar la red si falla), total recalculado, POST, prepend al estado y
// deducción optimista de stock por cada línea emparejada.
func (l *Ledger) Create(ctx context.Context, in SaleInput) (entity.Sale, error) {
	if !l.sess.Authenticated() {
		l.notifier.Toast("Debes iniciar sesión para registrar una venta", notify.SeverityError, 0)
		return entity.Sale{}, domain.ErrAuthRequired
	}
	if err := l.validateStock(in.Items, nil); err != nil {
		l.notifier.Toast(err.Error(), notify.SeverityError, 0)
		return entity.Sale{}, err
	}

	total := computeTotal(in.Items)
	raw, err := l.gw.CallJSON(ctx, "POST", "/sales/", saleBody(in, total))
	if err != nil {
		return entity.Sale{}, err
	}
	created := decodeSale(raw, in, total)

	l.mu.Lock()
	l.sales = append([]entity.Sale{created}, l.sales...)
	l.mu.Unlock()

	// Deducción optimista: el pre-check garantiza suficiencia, pero un fallo
	// aquí no puede revertir la venta ya aceptada por el servidor; se registra.
	for _, it := range created.Items {
		if it.PartNumber == "" {
			continue
		}
		if err := l.mut.AdjustStock(it.PartNumber, -it.Qty); err != nil {
			l.log.Warn().Err(err).Str("part_number", it.PartNumber).
				Msg("deducción optimista tras venta fallida")
		}
	}

	l.notifier.Toast("Venta registrada correctamente", notify.SeveritySuccess, 0)
	return created, nil
}

// Edit actualiza una venta. El stock disponible por item se calcula como
// stock actual + cantidad original de esa pieza en la venta editada (la
// cantidad que devuelve la edición se acredita antes de re-validar), lo que
// evita rechazos falsos en ediciones sin cambios. Tras el éxito el ledger
// NO re-aplica deltas locales: pide un re-sync de piezas al inventario y la
// verdad del stock queda en el servidor (política decidida, ver DESIGN.md).
func (l *Ledger) Edit(ctx context.Context, saleID string, in SaleInput) (entity.Sale, error) {
	if !l.sess.Authenticated() {
		l.notifier.Toast("Debes iniciar sesión para editar una venta", notify.SeverityError, 0)
		return entity.Sale{}, domain.ErrAuthRequired
	}

	credit := map[string]int{}
	if original, ok := l.findSale(saleID); ok {
		for _, it := range original.Items {
			if it.PartNumber != "" {
				credit[it.PartNumber] += it.Qty
			}
		}
	}
	if err := l.validateStock(in.Items, credit); err != nil {
		l.notifier.Toast(err.Error(), notify.SeverityError, 0)
		return entity.Sale{}, err
	}

	total := computeTotal(in.Items)
	raw, err := l.gw.CallJSON(ctx, "PUT", "/sales/"+saleID+"/", saleBody(in, total))
	if err != nil {
		return entity.Sale{}, err
	}
	updated := decodeSale(raw, in, total)
	if updated.ID == "" {
		updated.ID = saleID
	}

	l.mu.Lock()
	for i := range l.sales {
		if l.sales[i].ID == saleID {
			l.sales[i] = updated
			break
		}
	}
	l.mu.Unlock()

	if err := l.resync.RefreshParts(ctx); err != nil {
		l.log.Warn().Err(err).Msg("re-sync de inventario tras editar venta fallido")
	}
	l.notifier.Toast("Venta actualizada correctamente", notify.SeveritySuccess, 0)
	return updated, nil
}

// Remove elimina una venta: retiro local inmediato (optimista), restauración
// best-effort del stock por número de parte — con fallback difuso por
// descripción — y DELETE al backend. Si el DELETE falla el retiro local se
// mantiene y el error se propaga (el gateway ya lo hizo visible).
func (l *Ledger) Remove(ctx context.Context, saleID string) error {
	if !l.sess.Authenticated() {
		l.notifier.Toast("Debes iniciar sesión para eliminar una venta", notify.SeverityError, 0)
		return domain.ErrAuthRequired
	}

	sale, ok := l.findSale(saleID)
	if !ok {
		return domain.ErrNotFound
	}

	l.mu.Lock()
	kept := l.sales[:0]
	for _, s := range l.sales {
		if s.ID != saleID {
			kept = append(kept, s)
		}
	}
	l.sales = kept
	l.mu.Unlock()

	l.restoreStock(sale)

	if _, err := l.gw.CallJSON(ctx, "DELETE", "/sales/"+saleID+"/", nil); err != nil {
		l.log.Warn().Err(err).Str("sale_id", saleID).Msg("DELETE de venta fallido; retiro local mantenido")
		return err
	}
	l.notifier.Toast("Venta eliminada", notify.SeveritySuccess, 0)
	return nil
}

// restoreStock devuelve al inventario las cantidades de una venta eliminada.
// Empareja por número de parte; sin número, intenta el fallback difuso por
// descripción. Inherentemente ambiguo: solo best-effort.
func (l *Ledger) restoreStock(sale entity.Sale) {
	for _, it := range sale.Items {
		if it.Qty <= 0 {
			continue
		}
		partNumber := it.PartNumber
		if partNumber == "" {
			p, ok := l.inv.PartByDescription(it.Name)
			if !ok {
				l.log.Warn().Str("item", it.Name).Msg("restauración de stock sin pieza emparejada")
				continue
			}
			partNumber = p.PartNumber
		} else if _, ok := l.inv.PartByNumber(partNumber); !ok {
			l.log.Warn().Str("part_number", partNumber).Msg("restauración de stock: pieza no encontrada")
			continue
		}
		if err := l.mut.AdjustStock(partNumber, it.Qty); err != nil {
			l.log.Warn().Err(err).Str("part_number", partNumber).Msg("restauración de stock fallida")
		}
	}
}

// validateStock pre-valida cada item contra el snapshot de inventario.
// credit acredita cantidades siendo devueltas (edición) antes de comparar.
func (l *Ledger) validateStock(items []entity.SaleItem, credit map[string]int) error {
	for _, it := range items {
		part, ok := l.inv.PartByNumber(it.PartNumber)
		if !ok {
			return &domain.StockValidationError{PartNumber: it.PartNumber, Requested: it.Qty, Missing: true}
		}
		available := part.CurrentStock + credit[it.PartNumber]
		if it.Qty > available {
			return &domain.StockValidationError{
				PartNumber: it.PartNumber,
				Requested:  it.Qty,
				Available:  available,
			}
		}
	}
	return nil
}

// Sales devuelve una copia del snapshot de ventas.
func (l *Ledger) Sales() []entity.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]entity.Sale, len(l.sales))
	copy(out, l.sales)
	return out
}

// SaleByID busca una venta en el estado local.
func (l *Ledger) SaleByID(saleID string) (entity.Sale, bool) {
	return l.findSale(saleID)
}

// TotalSales total derivado: Σ sale.Total.
func (l *Ledger) TotalSales() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := decimal.Zero
	for _, s := range l.sales {
		total = total.Add(s.Total)
	}
	return total
}

func (l *Ledger) findSale(saleID string) (entity.Sale, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.sales {
		if s.ID == saleID {
			return s, true
		}
	}
	return entity.Sale{}, false
}

func computeTotal(items []entity.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// saleBody arma el cuerpo hacia el backend con el total recalculado.
func saleBody(in SaleInput, total decimal.Decimal) map[string]any {
	body := map[string]any{
		"items": in.Items,
		"total": total,
	}
	if in.Date != "" {
		body["date"] = in.Date
	}
	if in.CustomerID != "" {
		body["customer_id"] = in.CustomerID
	}
	if in.CustomerName != "" {
		body["customer_name"] = in.CustomerName
	}
	return body
}

// decodeSale decodifica la venta devuelta por el servidor; si el cuerpo
// viene vacío o malformado, reconstruye la venta desde el input (el re-sync
// posterior corrige cualquier divergencia).
func decodeSale(raw json.RawMessage, in SaleInput, total decimal.Decimal) entity.Sale {
	var sale entity.Sale
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sale); err == nil && (sale.ID != "" || len(sale.Items) > 0) {
			sale.Total = sale.ComputeTotal()
			return sale
		}
	}
	name := in.CustomerName
	if name == "" {
		name = entity.WalkInCustomer
	}
	return entity.Sale{
		Date:         in.Date,
		CustomerID:   in.CustomerID,
		CustomerName: name,
		Items:        in.Items,
		Total:        total,
	}
}
