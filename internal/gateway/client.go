// Package gateway implementa el cliente HTTP autenticado contra el backend
// remoto del taller. Normaliza errores HTTP en mensajes legibles y los hace
// visibles por el canal de toasts antes de propagarlos, de modo que ningún
// fallo de red queda silenciado aunque el caller decida no mostrarlo.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tu-usuario/taller-pro/internal/domain"
	"github.com/tu-usuario/taller-pro/internal/notify"
	"github.com/tu-usuario/taller-pro/pkg/logger"
)

// TokenSource origen del token Bearer (almacén de sesión).
type TokenSource interface {
	Token() string
}

// Notifier canal de toasts; el gateway solo necesita emitir.
type Notifier interface {
	Toast(message string, severity notify.Severity, duration time.Duration)
}

// Client cliente JSON del backend remoto.
// Sin timeout de cliente: una petición colgada bloquea solo a su caller y el
// reintento es manual (modelo heredado de la UI original).
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	notifier   Notifier
	log        *logger.Logger
}

// NewClient construye el cliente. baseURL sin barra final (se normaliza).
func NewClient(baseURL string, tokens TokenSource, notifier Notifier, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		notifier:   notifier,
		log:        log,
	}
}

// CallJSON ejecuta una petición JSON autenticada. body == nil omite el cuerpo.
// Devuelve el cuerpo como JSON crudo; un cuerpo vacío o no-JSON devuelve nil.
// En estado no-2xx extrae un mensaje legible, emite un toast de error y
// devuelve un *domain.GatewayError.
func (c *Client) CallJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(method, path, 0, "fallo de red: "+err.Error())
	}
	defer resp.Body.Close()

	// Igual que la UI original: primero texto, después intento de decode JSON.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(method, path, resp.StatusCode, "lectura de respuesta: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ExtractErrorMessage(raw, resp.StatusCode)
		return nil, c.fail(method, path, resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// Download descarga un recurso binario (export CSV) con el mismo esquema de
// autenticación y de errores que CallJSON.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(http.MethodGet, path, 0, "fallo de red: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(http.MethodGet, path, resp.StatusCode, "lectura de respuesta: "+err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ExtractErrorMessage(raw, resp.StatusCode)
		return nil, c.fail(http.MethodGet, path, resp.StatusCode, msg)
	}
	return raw, nil
}

// fail registra, emite el toast de error (doble superficie intencional) y
// construye el GatewayError.
func (c *Client) fail(method, path string, status int, msg string) error {
	c.log.Error().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Msg("llamada al backend fallida: " + msg)
	if c.notifier != nil {
		c.notifier.Toast(msg, notify.SeverityError, 0)
	}
	return &domain.GatewayError{Status: status, Message: msg}
}

// ExtractErrorMessage extrae un mensaje legible del cuerpo de error:
// {message}, {non_field_errors} (string o lista), el cuerpo crudo si es una
// cadena JSON, o un fallback con el código de estado.
func ExtractErrorMessage(raw []byte, status int) string {
	fallback := fmt.Sprintf("solicitud fallida con estado %d", status)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fallback
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil && asString != "" {
		return asString
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return string(trimmed)
	}
	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	switch nfe := obj["non_field_errors"].(type) {
	case string:
		if nfe != "" {
			return nfe
		}
	case []any:
		parts := make([]string, 0, len(nfe))
		for _, e := range nfe {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	return string(trimmed)
}
