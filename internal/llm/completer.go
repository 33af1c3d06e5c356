package llm

import "context"

// Request is one chat completion: a system instruction plus user content.
// MaxTokens bounds the generated output; Temperature of zero means the
// provider default.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer is the optional text-completion service. Callers hold a nil
// Completer when no service is configured and must degrade to templated
// responses on any error rather than failing the request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
