package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/backoff"
	"github.com/valpere/polyglotter/internal/errs"
	"github.com/valpere/polyglotter/internal/postprocess"
)

// DefaultOllamaModels mirrors the teacher's local-model rotation list.
var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
	"phi4:14b",
}

// Ollama implements Builder against a local Ollama server using the
// JSON-mode generate endpoint rather than native tool-calling, since
// Ollama's function-calling support varies by model. This adapts the
// teacher's internal/translator/ollama.go request shape (random model
// rotation, `format: "json"`, response-parsing) and folds in the
// prompt-then-parse pattern from internal/arbiter/ollama.go, which the
// teacher used for a second LLM pass over already-produced translations —
// here it serves the same role for any registered tool instead of a
// fixed arbiter schema.
type Ollama struct {
	baseURL string
	models  []string
	client  *http.Client

	system []string
	user   []string
	tools  map[string]ToolSpec
}

// NewOllama builds an Ollama-backed Builder from cfg.
func NewOllama(cfg Config) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	models := DefaultOllamaModels
	if cfg.Model != "" {
		models = []string{cfg.Model}
	}
	return &Ollama{
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 120 * time.Second},
		tools:   make(map[string]ToolSpec),
	}
}

func (o *Ollama) AppendSystemInput(s string) { o.system = append(o.system, s) }
func (o *Ollama) AppendUserInput(s string)    { o.user = append(o.user, s) }
func (o *Ollama) AppendUserData(internal.DataAttachment) {
	// Ollama's JSON-mode generate endpoint has no multimodal payload in
	// the teacher's reference shape; image attachments are unsupported
	// on this backend and must be routed to openai/anthropic/gemini.
}
func (o *Ollama) RegisterTool(t ToolSpec) { o.tools[t.Name] = t }
func (o *Ollama) Reset()                  { o.user = nil }

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (o *Ollama) randomModel() string {
	if len(o.models) == 0 {
		return "llama3.2"
	}
	return o.models[rand.Intn(len(o.models))]
}

func (o *Ollama) CallTool(ctx context.Context, name string) (internal.ProviderResponse, error) {
	spec, ok := o.tools[name]
	if !ok {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("tool %q was not registered", name))
	}

	model := o.randomModel()
	prompt := buildToolPrompt(o.system, o.user, spec)

	reqBody := ollamaGenerateRequest{Model: model, Prompt: prompt, Stream: false, Format: "json"}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.InvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(raw))
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return internal.ProviderResponse{}, backoff.ClassifyHTTP(resp, false)
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, fmt.Errorf("decode response: %w", err))
	}

	// Local models frequently wrap JSON-mode output in thinking blocks or an
	// introductory sentence despite format:"json"; strip those before parsing.
	cleaned := postprocess.Clean(decoded.Response)

	var args map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &args); err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("parse tool arguments: %w", err))
	}

	return internal.ProviderResponse{Args: args, Model: model}, nil
}

// buildToolPrompt renders a JSON-mode prompt asking the model to return
// arguments matching spec's schema, since the generate endpoint has no
// native tool-calling contract to rely on.
func buildToolPrompt(system, user []string, spec ToolSpec) string {
	var sb strings.Builder
	for _, s := range system {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	for _, s := range user {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	schema, _ := json.Marshal(spec.Parameters)
	fmt.Fprintf(&sb, "\nRespond ONLY with JSON matching this schema for tool %q:\n%s\n", spec.Name, schema)
	return sb.String()
}
