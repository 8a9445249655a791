package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/backoff"
	"github.com/valpere/polyglotter/internal/errs"
)

// OpenAI implements Builder against the OpenAI chat-completions tool-calling
// API, grounded on Tangerg-lynx/ai's openai-go/v3 request-building pattern
// (buildToolParams/buildSystemMsg/buildUserMsg), generalized to the
// append-then-call-one-tool shape the translation core needs.
type OpenAI struct {
	client openai.Client
	model  string

	system []string
	user   []string
	data   []internal.DataAttachment
	tools  map[string]ToolSpec
}

// NewOpenAI builds an OpenAI-backed Builder from cfg.
func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		tools:  make(map[string]ToolSpec),
	}
}

func (o *OpenAI) AppendSystemInput(s string) { o.system = append(o.system, s) }
func (o *OpenAI) AppendUserInput(s string)    { o.user = append(o.user, s) }
func (o *OpenAI) AppendUserData(a internal.DataAttachment) {
	o.data = append(o.data, a)
}
func (o *OpenAI) RegisterTool(t ToolSpec) { o.tools[t.Name] = t }
func (o *OpenAI) Reset()                  { o.user, o.data = nil, nil }

func (o *OpenAI) CallTool(ctx context.Context, name string) (internal.ProviderResponse, error) {
	spec, ok := o.tools[name]
	if !ok {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("tool %q was not registered", name))
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(o.system)+1)
	for _, s := range o.system {
		messages = append(messages, openai.SystemMessage(s))
	}
	messages = append(messages, buildUserMessage(o.user, o.data))

	toolParam := openai.ChatCompletionToolUnionParam{
		OfFunction: &openai.ChatCompletionFunctionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Strict:      openai.Bool(true),
				Parameters:  spec.Parameters,
			},
		},
	}

	params := openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: messages,
		Tools:    []openai.ChatCompletionToolUnionParam{toolParam},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: spec.Name},
			},
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return internal.ProviderResponse{}, &backoff.RateLimitError{Cause: err}
		}
		return internal.ProviderResponse{}, errs.New(errs.ProviderHttp, err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("no tool call in response"))
	}

	call := resp.Choices[0].Message.ToolCalls[0]
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return internal.ProviderResponse{}, errs.New(errs.ToolArgMismatch, fmt.Errorf("decode tool arguments: %w", err))
	}

	return internal.ProviderResponse{
		Args:  args,
		Model: resp.Model,
		Usage: internal.ProviderUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			Seen:             true,
		},
	}, nil
}

// buildUserMessage assembles one user turn out of every accumulated
// AppendUserInput string and AppendUserData attachment, embedding image
// attachments as base64 data URLs alongside plain text for everything else.
func buildUserMessage(userInputs []string, attachments []internal.DataAttachment) openai.ChatCompletionMessageParamUnion {
	text := ""
	for i, s := range userInputs {
		if i > 0 {
			text += "\n"
		}
		text += s
	}

	if len(attachments) == 0 {
		return openai.UserMessage(text)
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: text}},
	}
	for _, a := range attachments {
		if isImageMime(a.Mime) {
			dataURL := "data:" + a.Mime + ";base64," + base64.StdEncoding.EncodeToString(a.Bytes)
			parts = append(parts, openai.ChatCompletionContentPartUnionParam{
				OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
				},
			})
		}
	}
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
		},
	}
}

func isImageMime(m string) bool {
	return len(m) >= 6 && m[:6] == "image/"
}
