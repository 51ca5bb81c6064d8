// Package session guarda el token Bearer emitido por el servicio de
// autenticación externo (colaborador fuera de alcance). Es el análogo del
// localStorage de la UI original: un archivo JSON pequeño y persistente.
package session

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store almacén de sesión con persistencia en archivo. Seguro para uso
// concurrente; el archivo se escribe con permisos 0600.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

type sessionFile struct {
	Token string `json:"token"`
}

// NewStore crea el almacén y carga el token persistido si existe.
// Un archivo ilegible o corrupto se trata como sesión ausente, no como error.
func NewStore(path string) *Store {
	s := &Store{path: path}
	if data, err := os.ReadFile(path); err == nil {
		var f sessionFile
		if json.Unmarshal(data, &f) == nil {
			s.token = f.Token
		}
	}
	return s
}

// Set guarda el token y lo persiste.
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return s.persistLocked()
}

// Clear borra la sesión (logout).
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.persistLocked()
}

// Token devuelve el token crudo, o cadena vacía si no hay sesión.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated indica si hay una sesión utilizable: token presente y, si es
// un JWT con claim exp, aún no vencido. No valida la firma: eso es asunto del
// backend; aquí solo se evita enviar tokens obviamente muertos.
func (s *Store) Authenticated() bool {
	tok := s.Token()
	if tok == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		// Token opaco (no JWT): se asume válido y el backend decidirá.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(sessionFile{Token: s.token})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
