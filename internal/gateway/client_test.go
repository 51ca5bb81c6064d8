package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/gateway"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// ── Dobles ────────────────────────────────────────────────────────────────────

type staticTokens struct{ token string }

func (s staticTokens) Token() string { return s.token }

type recordingNotifier struct {
	messages   []string
	severities []notify.Severity
}

func (r *recordingNotifier) Toast(message string, severity notify.Severity, _ time.Duration) {
	r.messages = append(r.messages, message)
	r.severities = append(r.severities, severity)
}

// ── CallJSON ──────────────────────────────────────────────────────────────────

func TestCallJSON_EnviaBearerSoloConToken(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	conToken := gateway.NewClient(srv.URL, staticTokens{"abc123"}, nil, logger.Nop())
	_, err := conToken.CallJSON(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", authHeader)

	sinToken := gateway.NewClient(srv.URL, staticTokens{""}, nil, logger.Nop())
	_, err = sinToken.CallJSON(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.Empty(t, authHeader, "sin token no debe haber cabecera Authorization")
}

func TestCallJSON_CuerpoVacioDevuelveNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cli := gateway.NewClient(srv.URL, staticTokens{}, nil, logger.Nop())
	raw, err := cli.CallJSON(context.Background(), http.MethodDelete, "/sales/1/", nil)
	require.NoError(t, err)
	assert.Nil(t, raw, "204 sin cuerpo no es un error, solo ausencia de payload")
}

func TestCallJSON_CuerpoNoJSONDevuelveNilSinError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	cli := gateway.NewClient(srv.URL, staticTokens{}, nil, logger.Nop())
	raw, err := cli.CallJSON(context.Background(), http.MethodPost, "/x", nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestCallJSON_ExitoDevuelveJSONCrudo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`[{"id":"p1"}]`))
	}))
	defer srv.Close()

	cli := gateway.NewClient(srv.URL, staticTokens{}, nil, logger.Nop())
	raw, err := cli.CallJSON(context.Background(), http.MethodGet, "/inventory/parts/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(raw))
}

func TestCallJSON_ErrorEmiteToastYGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"stock insuficiente"}`))
	}))
	defer srv.Close()

	ntf := &recordingNotifier{}
	cli := gateway.NewClient(srv.URL, staticTokens{}, ntf, logger.Nop())

	_, err := cli.CallJSON(context.Background(), http.MethodPost, "/sales/", map[string]any{})
	require.Error(t, err)

	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, "stock insuficiente", gwErr.Message)

	require.Len(t, ntf.messages, 1, "todo fallo del backend debe ser visible como toast")
	assert.Equal(t, "stock insuficiente", ntf.messages[0])
	assert.Equal(t, notify.SeverityError, ntf.severities[0])
}

func TestCallJSON_FalloDeRedTambienEmiteToast(t *testing.T) {
	ntf := &recordingNotifier{}
	// Puerto cerrado: la conexión debe fallar de inmediato.
	cli := gateway.NewClient("http://127.0.0.1:1", staticTokens{}, ntf, logger.Nop())

	_, err := cli.CallJSON(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)

	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 0, gwErr.Status)
	assert.Len(t, ntf.messages, 1)
}

// ── Download ──────────────────────────────────────────────────────────────────

func TestDownload_DevuelveBytesCrudos(t *testing.T) {
	csv := "part_number,stock\nBP-1,7\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(csv))
	}))
	defer srv.Close()

	cli := gateway.NewClient(srv.URL, staticTokens{"tok"}, nil, logger.Nop())
	raw, err := cli.Download(context.Background(), "/inventory/export/")
	require.NoError(t, err)
	assert.Equal(t, csv, string(raw))
}

func TestDownload_ErrorUsaElMismoEsquema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"sin permiso"}`))
	}))
	defer srv.Close()

	ntf := &recordingNotifier{}
	cli := gateway.NewClient(srv.URL, staticTokens{}, ntf, logger.Nop())

	_, err := cli.Download(context.Background(), "/inventory/export/")
	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusForbidden, gwErr.Status)
	assert.Equal(t, []string{"sin permiso"}, ntf.messages)
}

// ── ExtractErrorMessage ───────────────────────────────────────────────────────

func TestExtractErrorMessage_Formatos(t *testing.T) {
	tests := []struct {
		nombre string
		cuerpo string
		quiero string
	}{
		{"campo message", `{"message":"no encontrado"}`, "no encontrado"},
		{"non_field_errors string", `{"non_field_errors":"venta duplicada"}`, "venta duplicada"},
		{"non_field_errors lista", `{"non_field_errors":["a","b"]}`, "a, b"},
		{"cadena JSON", `"error plano"`, "error plano"},
		{"objeto sin campos conocidos", `{"detail":"x"}`, `{"detail":"x"}`},
		{"no JSON", `<html>boom</html>`, `<html>boom</html>`},
		{"vacío", ``, "solicitud fallida con estado 500"},
	}
	for _, tc := range tests {
		t.Run(tc.nombre, func(t *testing.T) {
			assert.Equal(t, tc.quiero, gateway.ExtractErrorMessage([]byte(tc.cuerpo), 500))
		})
	}
}
