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
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/metastate"
	"github.com/valpere/polyglotter/internal/mimetype"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP translation server",
	Long: `serve exposes GET /health and POST /translate over HTTP, translating
one attachment per request per the same TranslateOptions every other
command surface honors.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

// translateRequest is the wire shape of POST /translate.
type translateRequest struct {
	Text                       string `json:"text,omitempty"`
	DataBase64                 string `json:"data_base64,omitempty"`
	Data                       string `json:"data,omitempty"` // path on disk
	Lang                       string `json:"lang"`
	SourceLang                 string `json:"source_lang,omitempty"`
	Formal                     bool   `json:"formal,omitempty"`
	Slang                      bool   `json:"slang,omitempty"`
	Model                      string `json:"model,omitempty"`
	Key                        string `json:"key,omitempty"`
	DataMime                   string `json:"data_mime,omitempty"`
	DataName                   string `json:"data_name,omitempty"`
	WithCommentout             bool   `json:"with_commentout,omitempty"`
	ForceTranslation           bool   `json:"force_translation,omitempty"`
	Correction                 bool   `json:"correction,omitempty"`
	DirectoryTranslationThreads int   `json:"directory_translation_threads,omitempty"`
	IgnoreTranslationFiles     []string `json:"ignore_translation_files,omitempty"`
	DebugOCR                   bool   `json:"debug_ocr,omitempty"`
	WhisperModel               string `json:"whisper_model,omitempty"`
	ResponseFormat             string `json:"response_format,omitempty"` // "raw" | "base64" | "path"
}

type translateContent struct {
	Mime       string `json:"mime"`
	Format     string `json:"format"`
	Original   string `json:"original,omitempty"`
	Translated string `json:"translated"`
	Correction string `json:"correction,omitempty"`
}

type translateResponse struct {
	Contents []translateContent `json:"contents"`
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	base, err := resolveBase()
	if err != nil {
		return err
	}
	settings, err := loadSettings(base)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(func(c *gin.Context) {
		c.Next()
		logger.Info().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Int("status", c.Writer.Status()).Msg("request")
	})

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/translate", func(c *gin.Context) {
		var req translateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		content, err := handleTranslateRequest(c.Request.Context(), base, settings, req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, translateResponse{Contents: []translateContent{content}})
	})

	logger.Info().Str("addr", serveAddr).Msg("starting HTTP server")
	return engine.Run(serveAddr)
}

// handleTranslateRequest resolves one POST /translate body into its
// DataAttachment (inline text, base64-encoded data, or a server-local
// path), dispatches it, optionally runs a correction pass, and encodes the
// result per response_format.
func handleTranslateRequest(ctx context.Context, base string, settings *config.Settings, req translateRequest) (translateContent, error) {
	var data []byte
	var name, mimeHintLocal string

	switch {
	case req.Text != "":
		data = []byte(req.Text)
		mimeHintLocal = "text"
	case req.DataBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(req.DataBase64)
		if err != nil {
			return translateContent{}, fmt.Errorf("decode data_base64: %w", err)
		}
		data = decoded
		name = req.DataName
		mimeHintLocal = req.DataMime
	case req.Data != "":
		fileData, err := os.ReadFile(req.Data)
		if err != nil {
			return translateContent{}, fmt.Errorf("read data path: %w", err)
		}
		data = fileData
		name = req.DataName
		mimeHintLocal = req.DataMime
	default:
		return translateContent{}, fmt.Errorf("request must set one of text, data_base64, data")
	}

	resolvedMime, err := mimetype.Resolve(data, mimeHintLocal, name, req.ForceTranslation, buildMimeProber(settings))
	if err != nil {
		return translateContent{}, err
	}

	style := ""
	if req.Formal {
		style = "formal"
	}
	opts := internal.TranslateOptions{
		TargetLang:       req.Lang,
		SourceLang:       firstNonEmpty(req.SourceLang, "auto"),
		Style:            style,
		Slang:            req.Slang,
		ForceTranslation: req.ForceTranslation,
	}

	hasData := isBinaryMime(resolvedMime)
	d, err := buildDispatcherWithOverrides(settings, base, opts, hasData, req.Model, req.Key)
	if err != nil {
		return translateContent{}, err
	}

	result, err := d.Dispatch(ctx, internal.DataAttachment{Bytes: data, Mime: resolvedMime, Name: name})
	if err != nil {
		return translateContent{}, err
	}

	content := translateContent{Mime: result.Mime, Translated: string(result.Bytes)}
	if req.Correction {
		corrected, err := runCorrection(settings, req.Model, req.Key, opts.SourceLang, string(data))
		if err == nil {
			content.Correction = corrected
		}
	}

	switch req.ResponseFormat {
	case "base64":
		content.Format = "base64"
		content.Translated = base64.StdEncoding.EncodeToString(result.Bytes)
	case "path":
		ms := metastate.New(base)
		hash, err := ms.SaveDest(result.Bytes)
		if err != nil {
			return translateContent{}, err
		}
		content.Format = "path"
		content.Translated = hash
	default:
		content.Format = "raw"
	}
	return content, nil
}

// runCorrection calls the correct_text tool once against a fresh builder,
// isolated from the translation's own builder/cache.
func runCorrection(settings *config.Settings, modelOverride, apiKeyOverride, sourceLang, text string) (string, error) {
	builder, err := buildBuilderWithOverrides(settings, modelOverride, apiKeyOverride)
	if err != nil {
		return "", err
	}
	renderer := prompt.New()
	system, err := renderer.Render("correct_text", prompt.Fields{SourceLang: sourceLang, ToolName: provider.ToolCorrectText})
	if err != nil {
		return "", err
	}
	builder.AppendSystemInput(system)
	builder.RegisterTool(provider.CorrectTextTool())
	builder.AppendUserInput(text)
	resp, err := builder.CallTool(context.Background(), provider.ToolCorrectText)
	if err != nil {
		return "", err
	}
	corrected, _ := resp.Args["corrected"].(string)
	return corrected, nil
}
