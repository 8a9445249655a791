// Package whispermodel resolves a whisper.cpp GGML model file on disk,
// downloading it from a known base URL on first use. Grounded on the
// teacher's internal/translator HTTP-client idiom (hand-rolled
// *http.Client with an explicit timeout, context-carrying requests) and
// config's settings-override precedence.
package whispermodel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valpere/polyglotter/internal/errs"
)

// DefaultBaseURL is the GGML model host used when no override is configured.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// AllowedModels is the canonical whisper.cpp model name allow-list.
var AllowedModels = map[string]bool{
	"tiny": true, "base": true, "small": true, "medium": true,
	"large": true, "large-v2": true, "large-v3": true,
	"tiny.en": true, "base.en": true, "small.en": true, "medium.en": true,
}

// Resolver locates or downloads a whisper.cpp model file.
type Resolver struct {
	CacheDir string
	BaseURL  string
	client   *http.Client
}

// New builds a Resolver rooted at cacheDir, using DefaultBaseURL unless
// baseURL is non-empty.
func New(cacheDir, baseURL string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		CacheDir: cacheDir,
		BaseURL:  baseURL,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Resolve applies the precedence order — explicit config override (absolute
// path or canonical name), env var A, env var B, default "base" — and
// returns a local path to the model file, downloading it if necessary.
func Resolve(ctx context.Context, r *Resolver, configOverride string) (string, error) {
	candidate := configOverride
	if candidate == "" {
		candidate = os.Getenv("LLM_TRANSLATOR_WHISPER_MODEL")
	}
	if candidate == "" {
		candidate = os.Getenv("WHISPER_CPP_MODEL")
	}
	if candidate == "" {
		candidate = "base"
	}

	if filepath.IsAbs(candidate) || strings.ContainsAny(candidate, `/\`) {
		if _, err := os.Stat(candidate); err != nil {
			return "", errs.WithFormat(errs.Decode, "whisper-model", fmt.Errorf("model path %q not found: %w", candidate, err))
		}
		return candidate, nil
	}

	if !AllowedModels[candidate] {
		return "", errs.New(errs.InvalidInput, fmt.Errorf("unknown whisper model name %q", candidate))
	}
	return r.ensureCached(ctx, candidate)
}

func (r *Resolver) ensureCached(ctx context.Context, model string) (string, error) {
	if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
		return "", errs.WithFormat(errs.Decode, "whisper-model", err)
	}
	filename := fmt.Sprintf("ggml-%s.bin", model)
	dest := filepath.Join(r.CacheDir, filename)

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := r.download(ctx, filename, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// download fetches the model to a `.part` tempfile and atomically renames
// it into place on success, so a crash mid-download never leaves a
// partial file at the canonical path.
func (r *Resolver) download(ctx context.Context, filename, dest string) error {
	url := r.BaseURL + "/" + filename
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.New(errs.Decode, fmt.Errorf("whisper model download %s: status %d", url, resp.StatusCode))
	}

	partPath := dest + ".part"
	f, err := os.Create(partPath)
	if err != nil {
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(partPath)
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(partPath)
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}

	if err := os.Rename(partPath, dest); err != nil {
		os.Remove(partPath)
		return errs.WithFormat(errs.Decode, "whisper-model", err)
	}
	return nil
}
