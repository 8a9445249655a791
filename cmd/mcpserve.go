/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/mimetype"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcpserve",
	Short: "Run the MCP (Model Context Protocol) stdio server",
	Long: `mcpserve speaks JSON-RPC 2.0 over stdin/stdout, exposing translate,
translate_details, correction, pos, dictionary, and readings as MCP tools.`,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	base, err := resolveBase()
	if err != nil {
		return err
	}
	settings, err := loadSettings(base)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s := server.NewMCPServer("polyglotter", "1.0.0")

	s.AddTool(translateTool(), translateToolHandler(settings, base))
	s.AddTool(translateDetailsTool(), translateDetailsToolHandler(settings))
	s.AddTool(correctionTool(), correctionToolHandler(settings))
	s.AddTool(posTool(), posToolHandler(settings))
	s.AddTool(dictionaryTool(), dictionaryToolHandler(settings))
	s.AddTool(readingsTool(), readingsToolHandler(settings))

	return server.ServeStdio(s)
}

func translateTool() mcp.Tool {
	return mcp.NewTool("translate",
		mcp.WithDescription("Translate text (or a base64-encoded attachment) into a target language."),
		mcp.WithString("text", mcp.Description("source text, when not passing data_base64")),
		mcp.WithString("data_base64", mcp.Description("base64-encoded attachment bytes, when not passing text")),
		mcp.WithString("data_mime", mcp.Description("MIME type of data_base64")),
		mcp.WithString("lang", mcp.Required(), mcp.Description("target language code")),
		mcp.WithString("source_lang", mcp.Description("source language code, default auto")),
		mcp.WithString("style", mcp.Description("translation style, e.g. formal")),
		mcp.WithBoolean("slang", mcp.Description("prefer natural/colloquial phrasing")),
	)
}

func translateToolHandler(settings *config.Settings, base string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		dataB64, _ := args["data_base64"].(string)
		dataMime, _ := args["data_mime"].(string)
		lang, _ := args["lang"].(string)
		sourceLang, _ := args["source_lang"].(string)
		style, _ := args["style"].(string)
		slang, _ := args["slang"].(bool)

		if sourceLang == "" {
			sourceLang = "auto"
		}

		var data []byte
		hint := "text"
		if text != "" {
			data = []byte(text)
		} else if dataB64 != "" {
			decoded, err := base64.StdEncoding.DecodeString(dataB64)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			data = decoded
			hint = dataMime
		} else {
			return mcp.NewToolResultError("one of text or data_base64 is required"), nil
		}

		resolvedMime, err := mimetype.Resolve(data, hint, "", false, buildMimeProber(settings))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := internal.TranslateOptions{TargetLang: lang, SourceLang: sourceLang, Style: style, Slang: slang}
		d, err := buildDispatcher(settings, base, opts, isBinaryMime(resolvedMime))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := d.Dispatch(ctx, internal.DataAttachment{Bytes: data, Mime: resolvedMime})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(result.Bytes)), nil
	}
}

func translateDetailsTool() mcp.Tool {
	return mcp.NewTool("translate_details",
		mcp.WithDescription("Break a translation down word by word, with part-of-speech tags."),
		mcp.WithString("text", mcp.Required(), mcp.Description("source text")),
		mcp.WithString("lang", mcp.Required(), mcp.Description("target language code")),
		mcp.WithString("source_lang", mcp.Description("source language code, default auto")),
	)
}

func translateDetailsToolHandler(settings *config.Settings) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		lang, _ := args["lang"].(string)
		sourceLang, _ := args["source_lang"].(string)
		if sourceLang == "" {
			sourceLang = "auto"
		}

		builder, err := buildBuilder(settings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		renderer := prompt.New()
		system, err := renderer.Render("deliver_translation_details", prompt.Fields{
			SourceLang: sourceLang, TargetLang: lang, ToolName: provider.ToolDeliverTranslationDetails,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		builder.AppendSystemInput(system)
		builder.RegisterTool(provider.DeliverTranslationDetailsTool())
		builder.AppendUserInput(text)
		resp, err := builder.CallTool(ctx, provider.ToolDeliverTranslationDetails)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", resp.Args["words"])), nil
	}
}

func correctionTool() mcp.Tool {
	return mcp.NewTool("correction",
		mcp.WithDescription("Correct grammar and style issues in text without changing its meaning."),
		mcp.WithString("text", mcp.Required(), mcp.Description("text to correct")),
		mcp.WithString("source_lang", mcp.Description("language of text, default auto")),
	)
}

func correctionToolHandler(settings *config.Settings) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		sourceLang, _ := args["source_lang"].(string)
		if sourceLang == "" {
			sourceLang = "auto"
		}
		corrected, err := runCorrection(settings, "", "", sourceLang, text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(corrected), nil
	}
}

func dictionaryTool() mcp.Tool {
	return mcp.NewTool("dictionary",
		mcp.WithDescription("Look up a single term and return its part of speech and definitions."),
		mcp.WithString("term", mcp.Required(), mcp.Description("term to look up")),
		mcp.WithString("source_lang", mcp.Description("language of term, default auto")),
		mcp.WithString("target_lang", mcp.Description("language to render definitions in, default source_lang")),
	)
}

func dictionaryToolHandler(settings *config.Settings) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		term, _ := args["term"].(string)
		sourceLang, _ := args["source_lang"].(string)
		targetLang, _ := args["target_lang"].(string)
		if sourceLang == "" {
			sourceLang = "auto"
		}
		if targetLang == "" {
			targetLang = sourceLang
		}

		builder, err := buildBuilder(settings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		renderer := prompt.New()
		system, err := renderer.Render("deliver_dictionary_entry", prompt.Fields{
			SourceLang: sourceLang, TargetLang: targetLang, ToolName: provider.ToolDeliverDictionaryEntry,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		builder.AppendSystemInput(system)
		builder.RegisterTool(provider.DeliverDictionaryEntryTool())
		builder.AppendUserInput(term)
		resp, err := builder.CallTool(ctx, provider.ToolDeliverDictionaryEntry)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", resp.Args)), nil
	}
}

func readingsTool() mcp.Tool {
	return mcp.NewTool("readings",
		mcp.WithDescription("Provide a phonetic reading for each of the given terms."),
		mcp.WithString("text", mcp.Required(), mcp.Description("text containing the terms to read")),
		mcp.WithString("source_lang", mcp.Description("language of text, default auto")),
	)
}

func readingsToolHandler(settings *config.Settings) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		sourceLang, _ := args["source_lang"].(string)
		if sourceLang == "" {
			sourceLang = "auto"
		}

		builder, err := buildBuilder(settings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		renderer := prompt.New()
		system, err := renderer.Render("deliver_readings", prompt.Fields{
			SourceLang: sourceLang, ToolName: provider.ToolDeliverReadings,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		builder.AppendSystemInput(system)
		builder.RegisterTool(provider.DeliverReadingsTool())
		builder.AppendUserInput(text)
		resp, err := builder.CallTool(ctx, provider.ToolDeliverReadings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", resp.Args["readings"])), nil
	}
}

func posTool() mcp.Tool {
	return mcp.NewTool("pos",
		mcp.WithDescription("Tag each word of text with its part of speech."),
		mcp.WithString("text", mcp.Required(), mcp.Description("text to tag")),
		mcp.WithString("source_lang", mcp.Description("language of text, default auto")),
	)
}

func posToolHandler(settings *config.Settings) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		sourceLang, _ := args["source_lang"].(string)
		if sourceLang == "" {
			sourceLang = "auto"
		}

		builder, err := buildBuilder(settings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		renderer := prompt.New()
		system, err := renderer.Render("deliver_translation_details", prompt.Fields{
			SourceLang: sourceLang, ToolName: provider.ToolDeliverTranslationDetails,
			AllowedPOS: []string{"noun", "verb", "adjective", "adverb", "pronoun", "preposition", "conjunction", "interjection", "determiner"},
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		builder.AppendSystemInput(system)
		builder.RegisterTool(provider.DeliverTranslationDetailsTool())
		builder.AppendUserInput(text)
		resp, err := builder.CallTool(ctx, provider.ToolDeliverTranslationDetails)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", resp.Args["words"])), nil
	}
}
