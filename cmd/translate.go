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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/chunker"
	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/detector"
	"github.com/valpere/polyglotter/internal/metastate"
	"github.com/valpere/polyglotter/internal/mimetype"
	"github.com/valpere/polyglotter/internal/placeholder"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
	"github.com/valpere/polyglotter/internal/store"
	"github.com/valpere/polyglotter/internal/validator"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
	mimeHint   string

	dbPath         string
	noCache        bool
	fuzzyThreshold float64
	backupTTLDays  int

	usePlaceholder bool
	chunkSize      int
	verifyLanguage bool
	llmTags        bool

	translateService string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a single file (or stdin) preserving its structure",
	Long: `Translate a single text, document, image, or audio file while
preserving its structure: plain text, HTML, Markdown, JSON, YAML, PO,
source code, Office containers (docx/pptx/xlsx), PDF, images (via OCR),
and audio (via ASR).`,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file (default: stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "target language code (required)")
	translateCmd.Flags().StringVar(&mimeHint, "mime", "", "MIME type hint or alias (text, image, pdf, docx, ...)")

	translateCmd.Flags().StringVar(&dbPath, "db", "", "translation memory database path (default <base>/.cache/memory.db)")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent translation memory cache")
	translateCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-threshold", 0, "fuzzy cache similarity threshold (0 disables)")
	translateCmd.Flags().IntVar(&backupTTLDays, "backup-ttl-days", 7, "days to retain a pre-overwrite backup of --output")

	translateCmd.Flags().BoolVar(&usePlaceholder, "placeholder", false, "protect HTML/Markdown markup with placeholders before a plain-text pass")
	translateCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "split large plain-text input into chunks of N characters (0 = no chunking)")
	translateCmd.Flags().BoolVar(&verifyLanguage, "verify-language", false, "flag (without failing) when the output does not appear to be in --target")
	translateCmd.Flags().BoolVar(&llmTags, "llm-tags", false, "generate classification tags for this history entry via an extra LLM call")
	translateCmd.Flags().StringVar(&translateService, "service", "llm", "translation service: llm (provider tool-calling) or google (Google Cloud Translate, plain text only)")

	translateCmd.MarkFlagRequired("target")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()

	data, name, err := readInput(inputFile)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	base, err := resolveBase()
	if err != nil {
		return err
	}
	settings, err := loadSettings(base)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	text := string(data)
	if sourceLang == "auto" && isProbablyText(data) {
		if det, ok := detector.New().DetectISO(text); ok {
			sourceLang = det
			logger.Debug().Str("detected", det).Msg("source language auto-detected")
		}
	}

	var mem *store.Store
	if !noCache {
		path := dbPath
		if path == "" {
			path = filepath.Join(base, ".cache", "memory.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			mem, err = store.New(path)
			if err != nil {
				logger.Warn().Err(err).Msg("translation memory unavailable, continuing without it")
				mem = nil
			} else {
				defer mem.Close()
			}
		}
	}

	resolvedMime, err := mimetype.Resolve(data, mimeHint, name, forceFlag, buildMimeProber(settings))
	if err != nil {
		return fmt.Errorf("resolve mime: %w", err)
	}

	var translated []byte
	var modelUsed string
	fromCache := false

	if mem != nil && isPlainTextMime(resolvedMime) {
		if cached, found, cacheErr := mem.GetCachedTranslation(ctx, text, sourceLang, targetLang); cacheErr == nil && found {
			translated, fromCache = []byte(cached), true
		} else if fuzzyThreshold > 0 {
			if cached, found, cacheErr := mem.FuzzyGetCachedTranslation(ctx, text, sourceLang, targetLang, fuzzyThreshold); cacheErr == nil && found {
				translated, fromCache = []byte(cached), true
			}
		}
	}

	if !fromCache && translateService == "google" {
		// Fast path kept from the teacher: a plain-text segment doesn't
		// need an LLM tool-call round trip when Google Translate will do.
		if resolvedMime != "text/plain" {
			return fmt.Errorf("--service google supports text/plain input only, got %s", resolvedMime)
		}
		g := &provider.Google{Credentials: settings.GoogleCredentials}
		out, gerr := g.Translate(ctx, text, sourceLang, targetLang)
		if gerr != nil {
			return fmt.Errorf("google translate: %w", gerr)
		}
		translated = []byte(out)
		modelUsed = "google-translate"
		if mem != nil {
			_ = mem.SaveToMemory(ctx, text, sourceLang, targetLang, string(translated), modelUsed)
		}
	} else if !fromCache {
		opts := internal.TranslateOptions{
			TargetLang:       targetLang,
			SourceLang:       sourceLang,
			Style:            styleFlag,
			Slang:            slangFlag,
			ForceTranslation: forceFlag,
		}
		hasData := isBinaryMime(resolvedMime)

		d, err := buildDispatcher(settings, base, opts, hasData)
		if err != nil {
			return err
		}

		att := internal.DataAttachment{Bytes: data, Mime: resolvedMime, Name: name}

		if !hasData && resolvedMime == "text/plain" {
			translated, err = translatePlainTextWithExtras(d, text)
		} else {
			var result internal.AttachmentTranslation
			result, err = d.Dispatch(ctx, att)
			if err == nil {
				translated = result.Bytes
				modelUsed = result.Model
			}
		}
		if err != nil {
			return fmt.Errorf("translate: %w", err)
		}

		if mem != nil && isPlainTextMime(resolvedMime) {
			_ = mem.SaveToMemory(ctx, text, sourceLang, targetLang, string(translated), modelUsed)
		}
	}

	if verifyLanguage {
		if ok, verr := validator.New().IsValid(string(translated), targetLang); !ok && verr != nil {
			logger.Warn().Err(verr).Msg("translated output may not be in the target language")
		}
	}

	if outputFile == "" {
		_, err := os.Stdout.Write(translated)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	bs := metastate.NewBackupStore(base)
	if err := bs.Backup(outputFile, backupTTLDays); err != nil {
		logger.Warn().Err(err).Msg("pre-overwrite backup failed, continuing")
	}
	if err := os.WriteFile(outputFile, translated, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	ms := metastate.New(base)
	meta, _ := ms.Load()
	meta.LastUsingModel = modelUsed
	destHash, derr := ms.SaveDest(translated)
	entry := metastate.HistoryEntry{
		ID:         uuid.NewString(),
		SourceMime: resolvedMime,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Model:      modelUsed,
		CreatedAt:  time.Now(),
	}
	if derr == nil {
		entry.DestPath = destHash
	}
	if llmTags {
		if tags, terr := generateHistoryTags(settings, entry); terr == nil {
			entry.Tags = tags
		} else {
			logger.Warn().Err(terr).Msg("history tag generation failed")
		}
	}
	meta.RecordHistory(entry)
	if err := ms.Save(meta); err != nil {
		logger.Warn().Err(err).Msg("failed to persist metastate")
	}

	if fromCache {
		fmt.Fprintf(os.Stderr, "Translated %s -> %s (from cache)\n", sourceLang, targetLang)
	} else {
		fmt.Fprintf(os.Stderr, "Translated %s -> %s\n", sourceLang, targetLang)
	}
	return nil
}

// translatePlainTextWithExtras applies the optional --placeholder and
// --chunk-size CLI features around the core segment translator: these are
// CLI conveniences (teacher's own Phase 6 flags), not core components, so
// they wrap the dispatcher rather than living inside internal/dispatch.
func translatePlainTextWithExtras(d interface {
	Dispatch(ctx context.Context, att internal.DataAttachment) (internal.AttachmentTranslation, error)
}, text string) ([]byte, error) {
	var markers []string
	if usePlaceholder {
		text, markers = placeholder.Protect(text)
	}

	chunks := chunker.Chunk(text, chunkSize)
	var out []byte
	for _, chunk := range chunks {
		result, err := d.Dispatch(context.Background(), internal.DataAttachment{Bytes: []byte(chunk), Mime: "text/plain"})
		if err != nil {
			return nil, err
		}
		if len(out) > 0 {
			out = append(out, '\n', '\n')
		}
		out = append(out, result.Bytes...)
	}

	if usePlaceholder && len(markers) > 0 {
		restored := placeholder.Restore(string(out), markers)
		return []byte(restored), nil
	}
	return out, nil
}

func readInput(path string) ([]byte, string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return data, "stdin.txt", err
	}
	data, err := os.ReadFile(path)
	return data, filepath.Base(path), err
}

func isProbablyText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

func isPlainTextMime(mime string) bool {
	switch mime {
	case "text/plain", "application/json", "application/x-yaml", "text/yaml",
		"text/x-gettext-translation", "text/markdown", "text/html":
		return true
	}
	return false
}

func isBinaryMime(mime string) bool {
	return len(mime) >= 6 && (mime[:6] == "image/" || mime[:6] == "audio/")
}

// generateHistoryTags calls the generate_history_tags tool against a fresh
// builder, isolated from the translation's own builder/cache, to classify
// one completed history entry for --llm-tags.
func generateHistoryTags(settings *config.Settings, entry metastate.HistoryEntry) ([]string, error) {
	builder, err := buildBuilder(settings)
	if err != nil {
		return nil, err
	}
	renderer := prompt.New()
	system, err := renderer.Render("generate_history_tags", prompt.Fields{
		SourceLang: entry.SourceLang, TargetLang: entry.TargetLang, ToolName: provider.ToolGenerateHistoryTags,
	})
	if err != nil {
		return nil, err
	}
	builder.AppendSystemInput(system)
	builder.RegisterTool(provider.GenerateHistoryTagsTool())
	builder.AppendUserInput(fmt.Sprintf("mime=%s model=%s", entry.SourceMime, entry.Model))

	resp, err := builder.CallTool(context.Background(), provider.ToolGenerateHistoryTags)
	if err != nil {
		return nil, err
	}
	raw, _ := resp.Args["tags"].([]any)
	tags := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags, nil
}
