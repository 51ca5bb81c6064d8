// Package notify implementa el puente de notificaciones del taller: una cola
// de toasts con expiración propia y un prompt modal de una sola ranura que
// sustituye a los diálogos bloqueantes. Se construye una única instancia en
// el arranque y se inyecta por referencia a los stores (nada de estado global
// mutable colgado de window como en la UI original).
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity severidad de un toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultToastDuration duración por defecto de un toast.
const DefaultToastDuration = 3 * time.Second

// ToastMessage mensaje efímero visible para el usuario. Cada mensaje se
// auto-elimina al vencer su duración mediante un timer independiente;
// varios toasts pueden estar visibles a la vez, ordenados por inserción.
type ToastMessage struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Severity  Severity      `json:"severity"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// PromptRequest parámetros de un prompt modal.
type PromptRequest struct {
	Title        string `json:"title"`
	Placeholder  string `json:"placeholder"`
	DefaultValue string `json:"default_value"`
}

// PromptResult respuesta de un prompt: OK=false equivale al null de cancelar.
type PromptResult struct {
	Value string
	OK    bool
}

// PromptState snapshot del estado del prompt para la UI.
type PromptState struct {
	Open         bool   `json:"open"`
	Title        string `json:"title"`
	Placeholder  string `json:"placeholder"`
	DefaultValue string `json:"default_value"`
}

// promptSlot variante etiquetada del estado del prompt:
// idle (pending == nil) o awaiting-input (pending != nil).
type promptSlot struct {
	req     PromptRequest
	pending chan PromptResult
}

// Bridge instancia compartida del canal de toasts y del prompt.
type Bridge struct {
	mu     sync.Mutex
	toasts []ToastMessage
	subs   map[chan ToastMessage]struct{}
	prompt promptSlot
}

// NewBridge construye el puente.
func NewBridge() *Bridge {
	return &Bridge{subs: make(map[chan ToastMessage]struct{})}
}

// Toast encola un mensaje. duration <= 0 usa DefaultToastDuration.
// El mensaje se difunde a los suscriptores (feed websocket) sin bloquear.
func (b *Bridge) Toast(message string, severity Severity, duration time.Duration) {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	msg := ToastMessage{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		Duration:  duration,
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.toasts = append(b.toasts, msg)
	for ch := range b.subs {
		select {
		case ch <- msg:
		default: // suscriptor lento: se salta este mensaje
		}
	}
	b.mu.Unlock()

	time.AfterFunc(duration, func() { b.Dismiss(msg.ID) })
}

// Active devuelve los toasts vigentes, en orden de inserción.
func (b *Bridge) Active() []ToastMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ToastMessage, len(b.toasts))
	copy(out, b.toasts)
	return out
}

// Dismiss elimina un toast por ID (expiración o cierre manual).
func (b *Bridge) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.toasts {
		if t.ID == id {
			b.toasts = append(b.toasts[:i], b.toasts[i+1:]...)
			return
		}
	}
}

// Subscribe registra un canal para recibir cada toast nuevo.
func (b *Bridge) Subscribe() chan ToastMessage {
	ch := make(chan ToastMessage, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe retira y cierra el canal.
func (b *Bridge) Unsubscribe(ch chan ToastMessage) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Prompt abre el prompt y devuelve el canal por el que llegará la respuesta
// (una sola escritura). Solo puede haber un prompt abierto: si se llama de
// nuevo antes de resolver, la petición pendiente se reemplaza y el canal
// anterior no recibe nunca — limitación heredada del original, documentada
// y verificada por test, no corregida aquí.
func (b *Bridge) Prompt(req PromptRequest) <-chan PromptResult {
	ch := make(chan PromptResult, 1)
	b.mu.Lock()
	b.prompt = promptSlot{req: req, pending: ch}
	b.mu.Unlock()
	return ch
}

// GetPromptState devuelve el snapshot para renderizar el modal.
func (b *Bridge) GetPromptState() PromptState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.prompt.pending == nil {
		return PromptState{}
	}
	return PromptState{
		Open:         true,
		Title:        b.prompt.req.Title,
		Placeholder:  b.prompt.req.Placeholder,
		DefaultValue: b.prompt.req.DefaultValue,
	}
}

// Resolve completa el prompt pendiente con el valor confirmado.
func (b *Bridge) Resolve(value string) {
	b.complete(PromptResult{Value: value, OK: true})
}

// Cancel completa el prompt pendiente como cancelado (null).
func (b *Bridge) Cancel() {
	b.complete(PromptResult{})
}

func (b *Bridge) complete(res PromptResult) {
	b.mu.Lock()
	pending := b.prompt.pending
	b.prompt = promptSlot{}
	b.mu.Unlock()
	if pending != nil {
		pending <- res
	}
}
