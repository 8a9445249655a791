// Package audio bridges spoken-audio translation: transcode to 16kHz mono
// WAV via ffmpeg, transcribe with whisper.cpp (relaxed-retry passes on a
// silent first attempt), translate the transcript, synthesize speech via
// say/espeak, and transcode back to the original container. Grounded on
// original_source's src/attachments/media/audio/mod.rs; go-audio/wav +
// go-audio/audio decode samples, ggerganov/whisper.cpp/bindings/go runs
// ASR directly (exposing the same greedy-sampling/relaxed-parameter knobs
// the original shells whisper.cpp for), os/exec drives ffmpeg and the
// platform TTS binary exactly as the spec names them.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/valpere/polyglotter/internal/errs"
)

// Transcriber is the subset of the translation pipeline the audio bridge
// needs: turn a transcript into a translated transcript.
type Transcriber func(ctx context.Context, transcript string) (string, error)

// Bridge carries the resources needed to run the audio pipeline.
type Bridge struct {
	ModelPath string
	WorkDir   string
	SourceLang string // "auto" permitted
	TargetLang string
}

// Translate runs the full pipeline over raw input audio bytes (in the
// container implied by inputExt, e.g. "mp3") and returns synthesized,
// translated audio bytes in the same container.
func (b *Bridge) Translate(ctx context.Context, data []byte, inputExt string, tr Transcriber) ([]byte, error) {
	if err := ensureCommand("ffmpeg"); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(b.WorkDir, "audio-*")
	if err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "audio", err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input."+inputExt)
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "audio", err)
	}

	wavPath := filepath.Join(dir, "input.wav")
	if err := runFFmpeg(ctx, "-y", "-i", inputPath, "-ar", "16000", "-ac", "1", wavPath); err != nil {
		return nil, err
	}

	transcript, err := b.transcribe(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, errs.New(errs.EmptyOutput, fmt.Errorf("no speech detected in audio"))
	}

	translated, err := tr(ctx, transcript)
	if err != nil {
		return nil, err
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return nil, errs.New(errs.EmptyOutput, fmt.Errorf("translation returned empty text"))
	}

	ttsWav := filepath.Join(dir, "tts.wav")
	if err := synthesizeSpeech(ctx, translated, b.TargetLang, ttsWav); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(dir, "output."+inputExt)
	if err := runFFmpeg(ctx, "-y", "-i", ttsWav, outputPath); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "audio", err)
	}
	return out, nil
}

// transcribe implements the original's multi-pass retry ladder: a strict
// first attempt on the plain WAV; if it yields no text, a relaxed retry on
// the same audio with the detected language (only when the source language
// wasn't forced); then relaxed passes over dynaudnorm and dynaudnorm+gain
// audio, each followed by the same detected-language retry.
func (b *Bridge) transcribe(ctx context.Context, wavPath string) (string, error) {
	forcedLang := resolveForcedLang(b.SourceLang)

	outcome, err := b.transcribeWithParams(wavPath, forcedLang, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(outcome.text) != "" {
		return outcome.text, nil
	}
	if forcedLang == "" && outcome.detectedLang != "" {
		retry, err := b.transcribeWithParams(wavPath, outcome.detectedLang, true)
		if err == nil && strings.TrimSpace(retry.text) != "" {
			return retry.text, nil
		}
	}

	dir := filepath.Dir(wavPath)
	normalizedPath := filepath.Join(dir, "input_norm.wav")
	if err := runFFmpeg(ctx, "-y", "-i", wavPath, "-af", "dynaudnorm", normalizedPath); err != nil {
		return "", err
	}
	outcome, err = b.transcribeWithParams(normalizedPath, forcedLang, true)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(outcome.text) != "" {
		return outcome.text, nil
	}
	if forcedLang == "" && outcome.detectedLang != "" {
		retry, err := b.transcribeWithParams(normalizedPath, outcome.detectedLang, true)
		if err == nil && strings.TrimSpace(retry.text) != "" {
			return retry.text, nil
		}
	}

	boostedPath := filepath.Join(dir, "input_boost.wav")
	if err := runFFmpeg(ctx, "-y", "-i", wavPath, "-af", "dynaudnorm,volume=6dB", boostedPath); err != nil {
		return "", err
	}
	outcome, err = b.transcribeWithParams(boostedPath, forcedLang, true)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(outcome.text) != "" {
		return outcome.text, nil
	}
	if forcedLang == "" && outcome.detectedLang != "" {
		retry, err := b.transcribeWithParams(boostedPath, outcome.detectedLang, true)
		if err == nil && strings.TrimSpace(retry.text) != "" {
			return retry.text, nil
		}
	}
	return outcome.text, nil
}

type transcribeOutcome struct {
	text         string
	detectedLang string
}

// transcribeWithParams runs one whisper.cpp pass. relaxed sets temperature
// 0.4 with a 0.2 fallback increment; suppress-blank, the no-speech
// threshold, single-segment mode and timestamps are left at the binding's
// defaults in both modes.
func (b *Bridge) transcribeWithParams(wavPath, forcedLang string, relaxed bool) (transcribeOutcome, error) {
	samples, err := readWAVMonoF32(wavPath)
	if err != nil {
		return transcribeOutcome{}, err
	}

	model, err := whisper.New(b.ModelPath)
	if err != nil {
		return transcribeOutcome{}, errs.WithFormat(errs.ExternalCommand, "whisper", err)
	}
	defer model.Close()

	wctx, err := model.NewContext()
	if err != nil {
		return transcribeOutcome{}, errs.WithFormat(errs.ExternalCommand, "whisper", err)
	}

	wctx.SetTranslate(false)
	if forcedLang != "" {
		_ = wctx.SetLanguage(forcedLang)
	} else {
		_ = wctx.SetLanguage("auto")
	}
	// Greedy sampling, matching the original's best_of=1. The relaxed pass
	// widens the temperature tolerance to coax a decode out of low-energy
	// audio the strict pass reported as silence.
	wctx.SetBeamSize(1)
	if relaxed {
		wctx.SetTemperature(0.4)
		wctx.SetTemperatureFallback(0.2)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return transcribeOutcome{}, errs.WithFormat(errs.ExternalCommand, "whisper", err)
	}

	var sb strings.Builder
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			break
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}

	return transcribeOutcome{text: sb.String(), detectedLang: wctx.DetectedLanguage()}, nil
}

// readWAVMonoF32 decodes a PCM WAV file into mono float32 samples in
// [-1, 1], averaging channels if the source isn't already mono.
func readWAVMonoF32(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "wav", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "wav", err)
	}
	return toMonoF32(buf), nil
}

func toMonoF32(buf *audio.IntBuffer) []float32 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	maxVal := float32(int(1) << (buf.SourceBitDepth - 1))
	if maxVal == 0 {
		maxVal = 32768
	}

	n := len(buf.Data) / channels
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		out[i] = float32(sum) / float32(channels) / maxVal
	}
	return out
}

// resolveForcedLang maps the user-supplied source language to a
// whisper-recognized code, or "" to mean auto-detect.
func resolveForcedLang(sourceLang string) string {
	if sourceLang == "" || strings.EqualFold(sourceLang, "auto") {
		return ""
	}
	return strings.ToLower(sourceLang)
}

func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.WithFormat(errs.ExternalCommand, "ffmpeg", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	return nil
}

func ensureCommand(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return errs.New(errs.ExternalCommand, fmt.Errorf("%s not found on PATH: %w", name, err))
	}
	return nil
}

// voiceTable maps target language tags to a platform TTS voice name.
var voiceTable = map[string]string{
	"en": "Samantha", "es": "Monica", "fr": "Thomas", "de": "Anna",
	"it": "Alice", "pt": "Joana", "ja": "Kyoko", "zh": "Tingting",
	"ko": "Yuna", "ru": "Milena",
}

// synthesizeSpeech uses macOS `say` or Linux `espeak`, mapping targetLang
// to the platform's voice table.
func synthesizeSpeech(ctx context.Context, text, targetLang, outPath string) error {
	voice := voiceTable[strings.ToLower(targetLang)]

	if runtime.GOOS == "darwin" {
		args := []string{"-o", outPath, "--data-format=LEF32@16000"}
		if voice != "" {
			args = append(args, "-v", voice)
		}
		args = append(args, text)
		cmd := exec.CommandContext(ctx, "say", args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return errs.WithFormat(errs.ExternalCommand, "say", fmt.Errorf("%w: %s", err, stderr.String()))
		}
		return nil
	}

	args := []string{"-w", outPath}
	if targetLang != "" {
		args = append(args, "-v", targetLang)
	}
	args = append(args, text)
	cmd := exec.CommandContext(ctx, "espeak", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.WithFormat(errs.ExternalCommand, "espeak", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	return nil
}
