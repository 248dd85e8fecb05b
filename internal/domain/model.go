package domain

import (
	"fmt"
	"strings"
)

// Backend identifies which chat-completion backend serves a model.
type Backend string

const (
	// BackendOllama is the locally hosted OpenAI-compatible server.
	BackendOllama Backend = "ollama"
	// BackendOpenAI is the hosted OpenAI API.
	BackendOpenAI Backend = "openai"
)

// ModelRef is a backend-qualified model identifier, e.g. "ollama/phi3"
// or "openai/gpt-4o-mini".
type ModelRef struct {
	Backend Backend
	Name    string
}

// ParseModelRef splits a "backend/model" identifier. The backend prefix
// is validated here; whether the backend is configured is checked at the
// LLM client.
func ParseModelRef(s string) (ModelRef, error) {
	backend, name, ok := strings.Cut(s, "/")
	if !ok || name == "" {
		return ModelRef{}, fmt.Errorf("model %q: %w", s, ErrUnknownBackend)
	}
	switch Backend(backend) {
	case BackendOllama, BackendOpenAI:
		return ModelRef{Backend: Backend(backend), Name: name}, nil
	}
	return ModelRef{}, fmt.Errorf("model %q: %w", s, ErrUnknownBackend)
}

func (m ModelRef) String() string {
	return string(m.Backend) + "/" + m.Name
}
