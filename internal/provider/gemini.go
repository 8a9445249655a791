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

// GeminiGenerateContentURL is the default Gemini generateContent endpoint,
// with the model name substituted at call time.
const GeminiGenerateContentURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// Gemini implements Builder with a hand-rolled HTTP client against the
// generateContent function-calling API — same rationale as Anthropic: no
// Gemini SDK appears anywhere in the reference pack, so the teacher's
// hand-rolled-HTTP-client habit (internal/translator/ollama.go) is reused
// here instead of inventing a dependency that was never observed.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	system []string
	user   []string
	data   []internal.DataAttachment
	tools  map[string]ToolSpec
}

// NewGemini builds a Gemini-backed Builder from cfg.
func NewGemini(cfg Config) *Gemini {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		tools:   make(map[string]ToolSpec),
	}
}

func (g *Gemini) AppendSystemInput(s string) { g.system = append(g.system, s) }
func (g *Gemini) AppendUserInput(s string)    { g.user = append(g.user, s) }
func (g *Gemini) AppendUserData(d internal.DataAttachment) {
	g.data = append(g.data, d)
}
func (g *Gemini) RegisterTool(t ToolSpec) { g.tools[t.Name] = t }
func (g *Gemini) Reset()                  { g.user, g.data = nil, nil }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiFunctionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiToolDecl `json:"tools"`
	ToolConfig        geminiToolConfig `json:"toolConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiToolDecl struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiToolConfig struct {
	FunctionCallingConfig struct {
		Mode                 string   `json:"mode"`
		AllowedFunctionNames []string `json:"allowedFunctionNames"`
	} `json:"functionCallingConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				FunctionCall *struct {
					Name string         `json:"name"`
					Args map[string]any `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) CallTool(ctx context.Context, name string) (internal.ProviderResponse, error) {
	spec, ok := g.tools[name]
	if !ok {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("tool %q was not registered", name))
	}

	parts := make([]geminiPart, 0, len(g.user)+len(g.data))
	for _, s := range g.user {
		parts = append(parts, geminiPart{Text: s})
	}
	for _, d := range g.data {
		if isImageMime(d.Mime) {
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MimeType: d.Mime,
				Data:     base64.StdEncoding.EncodeToString(d.Bytes),
			}})
		}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		Tools: []geminiToolDecl{{FunctionDeclarations: []geminiFunctionDecl{{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		}}}},
	}
	reqBody.ToolConfig.FunctionCallingConfig.Mode = "ANY"
	reqBody.ToolConfig.FunctionCallingConfig.AllowedFunctionNames = []string{spec.Name}
	if len(g.system) > 0 {
		system := ""
		for i, s := range g.system {
			if i > 0 {
				system += "\n"
			}
			system += s
		}
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.InvalidInput, err)
	}

	url := g.baseURL
	if url == "" {
		url = fmt.Sprintf(GeminiGenerateContentURL, g.model, g.apiKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		rateLimited := bytes.Contains(body, []byte("RESOURCE_EXHAUSTED"))
		return internal.ProviderResponse{}, backoff.ClassifyHTTP(resp, rateLimited)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != nil {
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, fmt.Errorf("%s", decoded.Error.Message))
	}

	for _, cand := range decoded.Candidates {
		for _, part := range cand.Content.Parts {
			if part.FunctionCall != nil && part.FunctionCall.Name == spec.Name {
				return internal.ProviderResponse{
					Args:  part.FunctionCall.Args,
					Model: g.model,
					Usage: internal.ProviderUsage{
						PromptTokens:     decoded.UsageMetadata.PromptTokenCount,
						CompletionTokens: decoded.UsageMetadata.CandidatesTokenCount,
						TotalTokens:      decoded.UsageMetadata.TotalTokenCount,
						Seen:             true,
					},
				}, nil
			}
		}
	}
	return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("no functionCall for %q in response", spec.Name))
}
