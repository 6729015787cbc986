// Package embedding converts text into dense vectors through a remote model.
// OpenAI, Azure OpenAI, Ollama and GigaChat are reached over plain HTTP;
// Gemini goes through the genai SDK.
package embedding

import (
	"context"
	"fmt"
)

// Embedder turns one text into one vector. Implementations are safe for
// concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Error is returned for any failed provider call. StatusCode is zero when the
// request never got an HTTP response.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s embedder: HTTP %d: %s: %v", e.Provider, e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s embedder: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s embedder: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s embedder: %s", e.Provider, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(provider, message string, err error) *Error {
	return &Error{Provider: provider, Message: message, Err: err}
}

func statusError(provider string, status int, message string) *Error {
	if message == "" {
		message = "unexpected status"
	}
	return &Error{Provider: provider, StatusCode: status, Message: message}
}
