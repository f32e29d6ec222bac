// Package testutils holds the doubles the package tests share: a fake Vault
// login endpoint and the live-AWS opt-in helper.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
)

// VaultLoginServer plays the Vault side of a login exchange. Every request
// gets Response back as JSON; paths and bodies are recorded for assertions.
type VaultLoginServer struct {
	TB testing.TB

	// Response is the body every login gets. StatusCode defaults to 200;
	// Vault uses 4xx bodies for rejections, so tests set both together.
	Response   map[string]interface{}
	StatusCode int

	mu     sync.Mutex
	paths  []string
	bodies [][]byte
}

var _ http.Handler = &VaultLoginServer{}

func (s *VaultLoginServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.TB.Errorf("reading login request body: %v", err)
	}

	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()

	status := s.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(s.Response); err != nil {
		s.TB.Errorf("encoding login response: %v", err)
	}
}

// Requests returns the recorded paths and raw bodies, oldest first.
func (s *VaultLoginServer) Requests() ([]string, [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := append([]string(nil), s.paths...)
	bodies := append([][]byte(nil), s.bodies...)
	return paths, bodies
}

// SuccessfulLogin is the smallest response body Vault would send for an
// accepted login.
func SuccessfulLogin(token string) map[string]interface{} {
	return map[string]interface{}{
		"request_id":     "11111111-2222-3333-4444-555555555555",
		"lease_id":       "",
		"renewable":      false,
		"lease_duration": 0,
		"auth": map[string]interface{}{
			"client_token":   token,
			"accessor":       "accessor-for-" + token,
			"policies":       []interface{}{"default"},
			"lease_duration": float64(2764800),
			"renewable":      true,
		},
	}
}

// RejectedLogin is the body Vault sends alongside a 4xx when the login is
// denied.
func RejectedLogin(messages ...string) map[string]interface{} {
	errs := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, m)
	}
	return map[string]interface{}{"errors": errs}
}
