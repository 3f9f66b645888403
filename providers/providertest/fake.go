// Package providertest stellt einen steuerbaren Completer für Tests bereit.
package providertest

import (
	"context"
	"sync"

	"reaction-hand/providers"
)

// Fake liefert vorgegebene Antworten statt ein Modell aufzurufen.
type Fake struct {
	// Content wird als Antworttext geliefert, sofern Err und Func nicht gesetzt sind.
	Content string
	Model   string
	Err     error
	// Func ersetzt das Standardverhalten vollständig.
	Func func(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error)

	mu       sync.Mutex
	requests []providers.CompletionRequest
}

// Name gibt "fake" zurück.
func (f *Fake) Name() string {
	return "fake"
}

// Complete merkt sich die Anfrage und liefert die konfigurierte Antwort.
func (f *Fake) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Func != nil {
		return f.Func(ctx, req)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &providers.Completion{Content: f.Content, Model: f.Model, FinishReason: "stop"}, nil
}

// Requests gibt alle bisher empfangenen Anfragen zurück.
func (f *Fake) Requests() []providers.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.CompletionRequest(nil), f.requests...)
}
