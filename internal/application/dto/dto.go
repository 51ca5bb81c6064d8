// Package dto estructuras de entrada/salida de la superficie HTTP.
package dto

// ErrorResponse respuesta de error uniforme de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionRequest instala el token Bearer emitido por el servicio de auth externo.
type SessionRequest struct {
	Token string `json:"token"`
}

// PromptOpenRequest abre el prompt modal.
type PromptOpenRequest struct {
	Title        string `json:"title"`
	Placeholder  string `json:"placeholder"`
	DefaultValue string `json:"default_value"`
}

// PromptAnswerRequest responde el prompt pendiente. Cancel=true equivale a null.
type PromptAnswerRequest struct {
	Value  string `json:"value"`
	Cancel bool   `json:"cancel"`
}

// PromptAnswerResponse resultado entregado al caller bloqueado en el prompt.
type PromptAnswerResponse struct {
	Value     string `json:"value,omitempty"`
	Cancelled bool   `json:"cancelled"`
}
