package sales_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/domain/entity"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/internal/store/sales"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// ── Dobles ────────────────────────────────────────────────────────────────────

type fakeGateway struct {
	responses map[string]string
	calls     []string
}

func (f *fakeGateway) CallJSON(_ context.Context, method, path string, _ any) (json.RawMessage, error) {
	key := method + " " + path
	f.calls = append(f.calls, key)
	body, ok := f.responses[key]
	if !ok {
		return nil, &domain.GatewayError{Status: 500, Message: "sin respuesta para " + key}
	}
	if body == "" {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// fakeInventory implementa los tres puertos del inventario sobre un mapa.
type fakeInventory struct {
	parts     map[string]entity.Part
	adjusts   map[string]int
	refreshed int
}

func newFakeInventory(parts ...entity.Part) *fakeInventory {
	f := &fakeInventory{parts: map[string]entity.Part{}, adjusts: map[string]int{}}
	for _, p := range parts {
		f.parts[p.PartNumber] = p
	}
	return f
}

func (f *fakeInventory) PartByNumber(partNumber string) (entity.Part, bool) {
	p, ok := f.parts[partNumber]
	return p, ok
}

func (f *fakeInventory) PartByDescription(name string) (entity.Part, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return entity.Part{}, false
	}
	for _, p := range f.parts {
		if strings.Contains(strings.ToLower(p.Description), needle) {
			return p, true
		}
	}
	return entity.Part{}, false
}

func (f *fakeInventory) AdjustStock(partNumber string, delta int) error {
	p, ok := f.parts[partNumber]
	if !ok {
		return domain.ErrNotFound
	}
	if p.CurrentStock+delta < 0 {
		return &domain.InsufficientStockError{PartNumber: partNumber, Requested: -delta, Available: p.CurrentStock}
	}
	p.CurrentStock += delta
	f.parts[partNumber] = p
	f.adjusts[partNumber] += delta
	return nil
}

func (f *fakeInventory) RefreshParts(context.Context) error {
	f.refreshed++
	return nil
}

type fakeSession struct{ auth bool }

func (f fakeSession) Authenticated() bool { return f.auth }

type fakeNotifier struct {
	messages   []string
	severities []notify.Severity
}

func (f *fakeNotifier) Toast(message string, severity notify.Severity, _ time.Duration) {
	f.messages = append(f.messages, message)
	f.severities = append(f.severities, severity)
}

func part(number, description string, stock int) entity.Part {
	return entity.Part{ID: "id-" + number, PartNumber: number, Description: description, CurrentStock: stock}
}

type fixture struct {
	ledger *sales.Ledger
	gw     *fakeGateway
	inv    *fakeInventory
	ntf    *fakeNotifier
}

func newFixture(t *testing.T, auth bool, parts ...entity.Part) fixture {
	t.Helper()
	gw := &fakeGateway{responses: map[string]string{}}
	inv := newFakeInventory(parts...)
	ntf := &fakeNotifier{}
	l := sales.NewLedger(gw, inv, inv, inv, fakeSession{auth: auth}, ntf, logger.Nop())
	return fixture{ledger: l, gw: gw, inv: inv, ntf: ntf}
}

// seedSales carga el estado del ledger a través de FetchAll con una respuesta
// enlatada del backend.
func seedSales(t *testing.T, fx fixture, salesJSON string) {
	t.Helper()
	fx.gw.responses["GET /sales/"] = salesJSON
	require.NoError(t, fx.ledger.FetchAll(context.Background()))
	fx.gw.calls = nil
}

// ── Guard de sesión ───────────────────────────────────────────────────────────

func TestCreate_SinSesionNoTocaLaRed(t *testing.T) {
	fx := newFixture(t, false, part("BP-1", "Pastillas de freno", 10))

	_, err := fx.ledger.Create(context.Background(), sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "BP-1", Qty: 1}},
	})

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Empty(t, fx.gw.calls, "sin sesión el guard corta antes de cualquier I/O")
	assert.NotEmpty(t, fx.ntf.messages)
}

func TestFetchAll_SinSesion(t *testing.T) {
	fx := newFixture(t, false)
	assert.ErrorIs(t, fx.ledger.FetchAll(context.Background()), domain.ErrAuthRequired)
	assert.Empty(t, fx.gw.calls)
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreate_ValidaStockAntesDeLaRed(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 5))

	_, err := fx.ledger.Create(context.Background(), sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "BP-1", Qty: 6, UnitPrice: decimal.NewFromInt(50)}},
	})

	var stockErr *domain.StockValidationError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "BP-1", stockErr.PartNumber)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Empty(t, fx.gw.calls, "el rechazo de stock es local")
	assert.Empty(t, fx.ledger.Sales())
}

func TestCreate_PiezaInexistenteSeRechaza(t *testing.T) {
	fx := newFixture(t, true)

	_, err := fx.ledger.Create(context.Background(), sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "NO-EXISTE", Qty: 1}},
	})

	var stockErr *domain.StockValidationError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Missing)
	assert.Empty(t, fx.gw.calls)
}

func TestCreate_RecalculaTotalYDeduceStock(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 10))
	fx.gw.responses["POST /sales/"] = `{"id":"s9","date":"2026-08-30","items":[{"part_number":"BP-1","qty":2,"unit":50}],"total":"999.99"}`

	venta, err := fx.ledger.Create(context.Background(), sales.SaleInput{
		Date:  "2026-08-30",
		Items: []entity.SaleItem{{PartNumber: "BP-1", Name: "Pastillas", Qty: 2, UnitPrice: decimal.NewFromInt(50)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "s9", venta.ID)
	assert.True(t, venta.Total.Equal(decimal.NewFromInt(100)),
		"el total del servidor se descarta: siempre Σ qty×unit, tengo %s", venta.Total)

	assert.Equal(t, -2, fx.inv.adjusts["BP-1"], "deducción optimista por la cantidad vendida")

	ventas := fx.ledger.Sales()
	require.Len(t, ventas, 1)
	assert.Equal(t, "s9", ventas[0].ID)
	assert.Equal(t, notify.SeveritySuccess, fx.ntf.severities[len(fx.ntf.severities)-1])
}

func TestCreate_PrependAlEstado(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 10))
	seedSales(t, fx, `[{"id":"s1","date":"2026-08-01","items":[],"total":"0"}]`)

	fx.gw.responses["POST /sales/"] = `{"id":"s2","items":[{"part_number":"BP-1","qty":1,"unit":10}]}`
	_, err := fx.ledger.Create(context.Background(), sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "BP-1", Qty: 1, UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	ventas := fx.ledger.Sales()
	require.Len(t, ventas, 2)
	assert.Equal(t, "s2", ventas[0].ID, "la venta nueva va al frente")
	assert.Equal(t, "s1", ventas[1].ID)
}

// ── Edit ──────────────────────────────────────────────────────────────────────

func TestEdit_AcreditaCantidadesOriginales(t *testing.T) {
	// Stock actual 2; la venta original ya retiró 3. Editar a qty 4 debe pasar
	// porque el disponible efectivo es 2 + 3 = 5.
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 2))
	seedSales(t, fx, `[{"id":"s1","date":"2026-08-01","items":[{"part_number":"BP-1","qty":3,"unit":50}],"total":"150"}]`)

	fx.gw.responses["PUT /sales/s1/"] = `{"id":"s1","items":[{"part_number":"BP-1","qty":4,"unit":50}]}`
	venta, err := fx.ledger.Edit(context.Background(), "s1", sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "BP-1", Qty: 4, UnitPrice: decimal.NewFromInt(50)}},
	})
	require.NoError(t, err)

	assert.True(t, venta.Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 1, fx.inv.refreshed, "tras editar se delega la verdad del stock al re-sync")
	assert.Zero(t, fx.inv.adjusts["BP-1"], "la edición no aplica deltas locales")

	ventas := fx.ledger.Sales()
	require.Len(t, ventas, 1)
	require.Len(t, ventas[0].Items, 1)
	assert.Equal(t, 4, ventas[0].Items[0].Qty)
}

func TestEdit_RechazaMasAllaDelCredito(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 2))
	seedSales(t, fx, `[{"id":"s1","items":[{"part_number":"BP-1","qty":3,"unit":50}],"total":"150"}]`)

	_, err := fx.ledger.Edit(context.Background(), "s1", sales.SaleInput{
		Items: []entity.SaleItem{{PartNumber: "BP-1", Qty: 6, UnitPrice: decimal.NewFromInt(50)}},
	})

	var stockErr *domain.StockValidationError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available, "disponible = stock (2) + crédito de la venta original (3)")
	assert.Empty(t, fx.gw.calls)
}

// ── Remove ────────────────────────────────────────────────────────────────────

func TestRemove_RestauraStockPorNumeroDeParte(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 2))
	seedSales(t, fx, `[{"id":"s1","items":[{"part_number":"BP-1","qty":3,"unit":50}],"total":"150"}]`)

	fx.gw.responses["DELETE /sales/s1/"] = ""
	require.NoError(t, fx.ledger.Remove(context.Background(), "s1"))

	assert.Equal(t, 3, fx.inv.adjusts["BP-1"], "las cantidades vendidas vuelven al inventario")
	assert.Empty(t, fx.ledger.Sales())
}

func TestRemove_FallbackDifusoPorDescripcion(t *testing.T) {
	fx := newFixture(t, true, part("OF-9", "Filtro de aceite premium", 1))
	seedSales(t, fx, `[{"id":"s1","items":[{"name":"filtro de aceite","qty":2,"unit":12}],"total":"24"}]`)

	fx.gw.responses["DELETE /sales/s1/"] = ""
	require.NoError(t, fx.ledger.Remove(context.Background(), "s1"))

	assert.Equal(t, 2, fx.inv.adjusts["OF-9"],
		"sin número de parte, la restauración empareja por descripción")
}

func TestRemove_DeleteFallidoMantieneRetiroLocal(t *testing.T) {
	fx := newFixture(t, true, part("BP-1", "Pastillas de freno", 2))
	seedSales(t, fx, `[{"id":"s1","items":[{"part_number":"BP-1","qty":1,"unit":50}],"total":"50"}]`)

	// Sin respuesta para el DELETE: el backend rechaza.
	err := fx.ledger.Remove(context.Background(), "s1")

	require.Error(t, err)
	assert.Empty(t, fx.ledger.Sales(), "el retiro optimista no se revierte")
	assert.Equal(t, 1, fx.inv.adjusts["BP-1"], "la restauración ya se aplicó")
}

func TestRemove_VentaInexistente(t *testing.T) {
	fx := newFixture(t, true)
	seedSales(t, fx, `[]`)
	assert.ErrorIs(t, fx.ledger.Remove(context.Background(), "nope"), domain.ErrNotFound)
}

// ── Derivados ─────────────────────────────────────────────────────────────────

func TestTotalSales_SumaDeTotales(t *testing.T) {
	fx := newFixture(t, true)
	seedSales(t, fx, `[
	  {"id":"s1","items":[],"total":"150.50"},
	  {"id":"s2","items":[],"total":"49.50"}
	]`)

	assert.True(t, fx.ledger.TotalSales().Equal(decimal.NewFromInt(200)),
		"total acumulado, tengo %s", fx.ledger.TotalSales())
}

func TestFetchAll_ClienteAusenteEsMostrador(t *testing.T) {
	fx := newFixture(t, true)
	seedSales(t, fx, `[{"id":"s1","items":[],"total":"0"}]`)

	ventas := fx.ledger.Sales()
	require.Len(t, ventas, 1)
	assert.Equal(t, entity.WalkInCustomer, ventas[0].CustomerName)
}
