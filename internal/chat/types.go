// Package chat defines the completion-backend contract and the request
// shaping shared by the reply pipeline and the document summarizer.
package chat

import "context"

// Message is one turn of model context.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// Request is the internal completion request structure.
type Request struct {
	System   string    // system instruction, may be empty
	Messages []Message // ordered context, oldest first
}

// Result is the internal completion result structure.
type Result struct {
	Text         string
	Model        string
	FinishReason string
}

// Provider is a text-completion backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// BackendError reports a completion backend failure: auth, quota, network, or
// a malformed response. The reason is for operator logs, never for end users.
type BackendError struct {
	Reason string
}

func (e *BackendError) Error() string {
	return "completion backend: " + e.Reason
}
