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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/cache"
	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/dispatch"
	"github.com/valpere/polyglotter/internal/logging"
	"github.com/valpere/polyglotter/internal/mimetype"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
	"github.com/valpere/polyglotter/internal/whispermodel"
)

// Global flags shared by every subcommand that performs a translation.
var (
	cfgFile    string
	baseDir    string
	verbose    bool
	modelFlag  string // "provider:model", e.g. "openai:gpt-4o-mini"
	apiKeyFlag string
	styleFlag  string
	slangFlag  bool
	forceFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "polyglotter",
	Short: "Format-preserving multi-artifact translator",
	Long: `polyglotter translates text, structured documents (HTML, Markdown,
JSON, YAML, PO, source code), Office containers, PDFs, images (via OCR),
and audio (via ASR) while preserving their original structure.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main() once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings.toml path (default <base>/settings.toml)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "base directory for settings/cache/backup (default $LLM_TRANSLATOR_RUST_DIR or $HOME/.polyglotter)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "provider:model override, e.g. openai:gpt-4o-mini (default settings.toml default_provider)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key override for the selected provider")
	rootCmd.PersistentFlags().StringVar(&styleFlag, "style", "", "translation style key (e.g. formal, casual)")
	rootCmd.PersistentFlags().BoolVar(&slangFlag, "slang", false, "prefer natural/colloquial phrasing over literal wording")
	rootCmd.PersistentFlags().BoolVar(&forceFlag, "force", false, "relax strict failure modes (lossy UTF-8 decode, low-confidence MIME accepted as text/plain)")
}

// initConfig keeps viper's environment-variable binding active for every
// subcommand, mirroring the teacher's cobra.OnInitialize(initConfig) hook.
func initConfig() {
	viper.AutomaticEnv()
}

// newLogger builds the process logger honoring --verbose.
func newLogger() zerolog.Logger {
	return logging.Default(verbose)
}

// resolveBase returns the effective base directory, honoring --base-dir.
func resolveBase() (string, error) {
	if baseDir != "" {
		return baseDir, nil
	}
	return config.Base()
}

// loadSettings loads <base>/settings.toml, or the directory containing
// --config when that flag names an explicit settings file.
func loadSettings(base string) (*config.Settings, error) {
	if cfgFile != "" {
		base = filepath.Dir(cfgFile)
	}
	return config.Load(base)
}

// splitModel splits a "provider:model" override into its two parts,
// falling back to settings.DefaultProvider (or "openai") when override is
// empty.
func splitModel(settings *config.Settings, override string) (backend, model string) {
	backend = settings.DefaultProvider
	if backend == "" {
		backend = "openai"
	}
	if override == "" {
		return backend, ""
	}
	if idx := strings.Index(override, ":"); idx >= 0 {
		return override[:idx], override[idx+1:]
	}
	return override, ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// buildBuilder resolves the provider backend named by modelFlag (or
// settings.DefaultProvider) into a concrete provider.Builder, filling in
// the matching API key from settings/flag overrides.
func buildBuilder(settings *config.Settings) (provider.Builder, error) {
	return buildBuilderWithOverrides(settings, modelFlag, apiKeyFlag)
}

// buildBuilderWithOverrides is buildBuilder with the "provider:model" and
// API-key overrides passed explicitly rather than read from the package
// globals modelFlag/apiKeyFlag. The HTTP server uses this form since
// concurrent requests carrying different per-request overrides would race
// on those globals.
func buildBuilderWithOverrides(settings *config.Settings, modelOverride, apiKeyOverride string) (provider.Builder, error) {
	backend, model := splitModel(settings, modelOverride)
	cfg := provider.Config{Model: model}

	switch backend {
	case "openai":
		cfg.APIKey = firstNonEmpty(apiKeyOverride, settings.OpenAIAPIKey)
		cfg.BaseURL = settings.OpenAIBaseURL
	case "anthropic":
		cfg.APIKey = firstNonEmpty(apiKeyOverride, settings.AnthropicAPIKey)
		cfg.BaseURL = settings.AnthropicBaseURL
	case "gemini":
		cfg.APIKey = firstNonEmpty(apiKeyOverride, settings.GeminiAPIKey)
	}
	return provider.Factory(backend, cfg)
}

// buildDispatcher wires every component behind the Dispatcher for a single
// translation request: the provider builder, a fresh per-document cache
// wrapping a provider.SegmentTranslator, the prompt renderer, and the
// whisper model resolver. hasData marks whether the attachment carries
// binary data (images), which flips the deliver_translation contract into
// its segment-bearing mode.
func buildDispatcher(settings *config.Settings, base string, opts internal.TranslateOptions, hasData bool) (*dispatch.Dispatcher, error) {
	return buildDispatcherWithOverrides(settings, base, opts, hasData, modelFlag, apiKeyFlag)
}

// buildDispatcherWithOverrides is buildDispatcher with the provider/API-key
// overrides passed explicitly instead of read from package globals; see
// buildBuilderWithOverrides.
func buildDispatcherWithOverrides(settings *config.Settings, base string, opts internal.TranslateOptions, hasData bool, modelOverride, apiKeyOverride string) (*dispatch.Dispatcher, error) {
	builder, err := buildBuilderWithOverrides(settings, modelOverride, apiKeyOverride)
	if err != nil {
		return nil, err
	}

	renderer := prompt.New()
	system, err := renderer.Render("deliver_translation", prompt.Fields{
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		Style:      opts.Style,
		Slang:      opts.Slang,
		HasData:    hasData,
		ToolName:   provider.ToolDeliverTranslation,
	})
	if err != nil {
		return nil, err
	}
	builder.AppendSystemInput(system)
	builder.RegisterTool(provider.DeliverTranslationTool())

	// IsImage stays false here: image inputs are translated per OCR line as
	// plain text segments, so deliver_translation's segment-bearing contract
	// only applies to calls that attach the image itself.
	segTr := &provider.SegmentTranslator{Builder: builder, Opts: opts}
	c := cache.New(segTr)

	resolver := whispermodel.New(whisperCacheDir(base), settings.WhisperBaseURL)

	return dispatch.New(dispatch.Config{
		Cache:                c,
		Builder:              builder,
		Prompts:              renderer,
		WhisperResolver:      resolver,
		Opts:                 opts,
		WorkDir:              os.TempDir(),
		EnableNormalize:      true,
		OverlayFooter:        true,
		WhisperModelOverride: settings.WhisperModel,
	}), nil
}

// buildMimeProber returns a provider-backed detect_mime prober for the
// MIME resolver's last-resort step, or nil when no provider can be
// constructed (sniffing alone must then suffice).
func buildMimeProber(settings *config.Settings) mimetype.Prober {
	builder, err := buildBuilder(settings)
	if err != nil {
		return nil
	}
	return &provider.MimeProber{Builder: builder}
}

func whisperCacheDir(base string) string {
	return filepath.Join(base, ".cache", "whisper")
}
