// Package provider implements the stateless tool-calling contract that
// hides per-backend HTTP payload differences behind a single builder
// shape, generalized from the teacher's internal/translator
// TranslationService interface (one struct per backend, Name/IsAvailable
// methods, a ServiceConfig carrying credentials/model/baseURL/timeout).
package provider

import (
	"context"
	"fmt"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/errs"
)

// ToolSpec describes one callable tool: its name, a human description, and
// a JSON Schema for its parameters.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Builder is the stateless provider contract: accumulate system/user input
// and optional attachment data, register the tools the call may invoke,
// then call one by name and get back its validated arguments.
//
// Implementations target HTTP endpoints with different payload shapes
// (OpenAI chat completions, Anthropic messages, Gemini generateContent);
// the contract hides those differences from every caller in this module.
type Builder interface {
	AppendSystemInput(s string)
	AppendUserInput(s string)
	AppendUserData(a internal.DataAttachment)
	RegisterTool(t ToolSpec)
	CallTool(ctx context.Context, name string) (internal.ProviderResponse, error)

	// Reset clears accumulated user input and attachment data while keeping
	// system input and registered tools, so one Builder can serve a sequence
	// of independent per-segment calls.
	Reset()
}

// Config mirrors the teacher's ServiceConfig shape, generalized with the
// fields every backend in this package needs.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Factory constructs a Builder for one backend name ("openai", "anthropic",
// "gemini", "ollama"). Used by the dispatcher and CLI to resolve
// a `provider:model` override into a concrete Builder.
func Factory(backend string, cfg Config) (Builder, error) {
	switch backend {
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, errs.New(errs.InvalidInput, fmt.Errorf("unknown provider backend %q", backend))
	}
}
