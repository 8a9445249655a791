package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/backoff"
	"github.com/valpere/polyglotter/internal/errs"
)

// AnthropicMessagesURL is the default Anthropic Messages API endpoint.
const AnthropicMessagesURL = "https://api.anthropic.com/v1/messages"

// Anthropic implements Builder with a hand-rolled HTTP client against the
// Messages API, matching the request/response shape used by
// batalabs-muxd's AnthropicProvider — no Go SDK for Anthropic appears in
// the reference pack, so this follows the same hand-rolled pattern the
// teacher uses for its own Ollama/Systran/MyMemory backends.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	system []string
	user   []string
	data   []internal.DataAttachment
	tools  map[string]ToolSpec
}

// NewAnthropic builds an Anthropic-backed Builder from cfg.
func NewAnthropic(cfg Config) *Anthropic {
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = AnthropicMessagesURL
	}
	return &Anthropic{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		tools:   make(map[string]ToolSpec),
	}
}

func (a *Anthropic) AppendSystemInput(s string) { a.system = append(a.system, s) }
func (a *Anthropic) AppendUserInput(s string)    { a.user = append(a.user, s) }
func (a *Anthropic) AppendUserData(d internal.DataAttachment) {
	a.data = append(a.data, d)
}
func (a *Anthropic) RegisterTool(t ToolSpec) { a.tools[t.Name] = t }
func (a *Anthropic) Reset()                  { a.user, a.data = nil, nil }

type anthropicContentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *anthropicImage `json:"source,omitempty"`
}

type anthropicImage struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string                    `json:"model"`
	MaxTokens int                       `json:"max_tokens"`
	System    string                    `json:"system,omitempty"`
	Messages  []anthropicMessageReq     `json:"messages"`
	Tools     []anthropicTool           `json:"tools"`
	ToolChoice map[string]string        `json:"tool_choice"`
}

type anthropicMessageReq struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type  string         `json:"type"`
		Name  string         `json:"name,omitempty"`
		Input map[string]any `json:"input,omitempty"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) CallTool(ctx context.Context, name string) (internal.ProviderResponse, error) {
	spec, ok := a.tools[name]
	if !ok {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("tool %q was not registered", name))
	}

	blocks := make([]anthropicContentBlock, 0, len(a.user)+len(a.data))
	for _, s := range a.user {
		blocks = append(blocks, anthropicContentBlock{Type: "text", Text: s})
	}
	for _, d := range a.data {
		if isImageMime(d.Mime) {
			blocks = append(blocks, anthropicContentBlock{
				Type: "image",
				Source: &anthropicImage{
					Type:      "base64",
					MediaType: d.Mime,
					Data:      base64.StdEncoding.EncodeToString(d.Bytes),
				},
			})
		}
	}

	system := ""
	for i, s := range a.system {
		if i > 0 {
			system += "\n"
		}
		system += s
	}

	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: 4096,
		System:    system,
		Messages:  []anthropicMessageReq{{Role: "user", Content: blocks}},
		Tools: []anthropicTool{{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Parameters,
		}},
		ToolChoice: map[string]string{"type": "tool", "name": spec.Name},
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.InvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(raw))
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		rateLimited := bytes.Contains(body, []byte("rate_limit_error"))
		return internal.ProviderResponse{}, backoff.ClassifyHTTP(resp, rateLimited)
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, fmt.Errorf("%s: %s", decoded.Error.Type, decoded.Error.Message))
	}

	for _, block := range decoded.Content {
		if block.Type == "tool_use" && block.Name == spec.Name {
			return internal.ProviderResponse{
				Args:  block.Input,
				Model: decoded.Model,
				Usage: internal.ProviderUsage{
					PromptTokens:     decoded.Usage.InputTokens,
					CompletionTokens: decoded.Usage.OutputTokens,
					TotalTokens:      decoded.Usage.InputTokens + decoded.Usage.OutputTokens,
					Seen:             true,
				},
			}, nil
		}
	}
	return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("no tool_use block for %q in response", spec.Name))
}
