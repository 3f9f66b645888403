package providers

import "context"

// Message ist eine einzelne Chat-Nachricht an das Modell.
type Message struct {
	Role    string
	Content string
}

// Rollen der Chat-Nachrichten.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest beschreibt eine Chat-Completion mit festen Sampling-Parametern.
type CompletionRequest struct {
	Model            string
	Messages         []Message
	MaxTokens        int
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// Completion ist die Textantwort des Modells.
type Completion struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Completer ist das Interface, das jeder Completion-Provider (z.B. OpenAI) implementieren muss.
type Completer interface {
	// Complete sendet die Nachrichten an das Modell und gibt den generierten Text zurück.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "openai").
	Name() string
}
