// Package config loads <base>/settings.toml plus environment-variable
// overrides, the way the teacher CLI loads ~/.peretran.yaml via viper —
// same library, TOML format and a wider key set per the translation
// core's persisted-state layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings is the decoded form of <base>/settings.toml plus environment
// overrides (OPENAI_API_KEY, GEMINI_API_KEY/GOOGLE_API_KEY,
// ANTHROPIC_API_KEY, OPENAI_BASE_URL, ANTHROPIC_BASE_URL,
// LLM_TRANSLATOR_WHISPER_MODEL, WHISPER_CPP_MODEL).
type Settings struct {
	DefaultProvider   string `mapstructure:"default_provider"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	AnthropicAPIKey   string `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL  string `mapstructure:"anthropic_base_url"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GoogleCredentials string `mapstructure:"google_credentials"`
	WhisperModel      string `mapstructure:"whisper_model"`
	WhisperBaseURL    string `mapstructure:"whisper_base_url"`
	DirectoryThreads  int    `mapstructure:"directory_threads"`
	BackupTTLDays     int    `mapstructure:"backup_ttl_days"`
}

// Base resolves the application's base directory: $LLM_TRANSLATOR_RUST_DIR
// if set, else $HOME/.polyglotter (falling back to $USERPROFILE on
// platforms without HOME).
func Base() (string, error) {
	if d := os.Getenv("LLM_TRANSLATOR_RUST_DIR"); d != "" {
		return d, nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve base directory: %w", err)
		}
	}
	return filepath.Join(home, ".polyglotter"), nil
}

// Load reads <base>/settings.toml (if present) and layers environment
// variables on top. A missing settings file is not an error: defaults plus
// env vars are sufficient to run.
func Load(base string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(base)

	v.SetDefault("directory_threads", 3)
	v.SetDefault("backup_ttl_days", 7)
	v.SetDefault("whisper_base_url", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main")

	v.SetEnvPrefix("")
	v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("openai_base_url", "OPENAI_BASE_URL")
	v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic_base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("google_credentials", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("whisper_model", "LLM_TRANSLATOR_WHISPER_MODEL", "WHISPER_CPP_MODEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read settings.toml: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}
