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
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/ignore"
	"github.com/valpere/polyglotter/internal/metastate"
	"github.com/valpere/polyglotter/internal/mimetype"
	"github.com/valpere/polyglotter/internal/scheduler"
)

var (
	dirSourceLang   string
	dirTargetLang   string
	dirOutputDir    string
	dirThreads      int
	dirIgnoreFile   string
	dirBackupTTLDay int
	dirSuffix       string
)

var dirCmd = &cobra.Command{
	Use:   "dir SOURCE_DIR",
	Short: "Translate every file in a directory tree, preserving layout",
	Long: `dir walks SOURCE_DIR, translates each file it recognizes, and writes
results to --output (mirroring the source tree), skipping paths matched by
--ignore-file. Each file is translated with its own isolated provider
builder and cache: nothing is shared mutably across files.`,
	Args: cobra.ExactArgs(1),
	RunE: runDir,
}

func init() {
	rootCmd.AddCommand(dirCmd)

	dirCmd.Flags().StringVarP(&dirSourceLang, "source", "s", "auto", "source language code")
	dirCmd.Flags().StringVarP(&dirTargetLang, "target", "t", "", "target language code (required)")
	dirCmd.Flags().StringVarP(&dirOutputDir, "output", "o", "", "output directory (required)")
	dirCmd.Flags().IntVar(&dirThreads, "threads", 0, "concurrent file translations (default settings.toml directory_threads or 3)")
	dirCmd.Flags().StringVar(&dirIgnoreFile, "ignore-file", ".translateignore", "gitignore-style file naming paths to skip")
	dirCmd.Flags().IntVar(&dirBackupTTLDay, "backup-ttl-days", 7, "days to retain a pre-overwrite backup of each output file")
	dirCmd.Flags().StringVar(&dirSuffix, "suffix", "", "suffix inserted before the extension of each translated filename, e.g. .fr")

	dirCmd.MarkFlagRequired("target")
	dirCmd.MarkFlagRequired("output")
}

func runDir(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	root := args[0]

	base, err := resolveBase()
	if err != nil {
		return err
	}
	settings, err := loadSettings(base)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	matcher, err := ignore.Load(filepath.Join(root, dirIgnoreFile))
	if err != nil {
		return fmt.Errorf("load ignore file: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Match(filepath.ToSlash(rel)) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	threads := dirThreads
	if threads <= 0 {
		threads = settings.DirectoryThreads
	}
	sched := scheduler.New(threads)
	bs := metastate.NewBackupStore(base)
	ms := metastate.New(base)
	meta, _ := ms.Load()

	results := sched.Run(context.Background(), paths, func(ctx context.Context, path string) (any, error) {
		return translateOneFile(ctx, path, root, settings, base, bs)
	})

	var failed int
	for i, res := range results {
		path := paths[i]
		if res.Err != nil {
			failed++
			logger.Error().Err(res.Err).Str("file", path).Msg("translation failed")
			continue
		}
		info, ok := res.Output.(fileTranslationResult)
		if !ok {
			continue
		}
		meta.RecordHistory(metastate.HistoryEntry{
			ID:         uuid.NewString(),
			SourceMime: info.mime,
			SourceLang: dirSourceLang,
			TargetLang: dirTargetLang,
			Model:      info.model,
			DestPath:   info.destHash,
			CreatedAt:  time.Now(),
		})
		logger.Info().Str("file", path).Str("dest", info.destPath).Msg("translated")
	}

	if err := ms.Save(meta); err != nil {
		logger.Warn().Err(err).Msg("failed to persist metastate")
	}

	fmt.Fprintf(os.Stderr, "Translated %d/%d files (%d failed)\n", len(paths)-failed, len(paths), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to translate", failed, len(paths))
	}
	return nil
}

type fileTranslationResult struct {
	destPath string
	destHash string
	mime     string
	model    string
}

// translateOneFile builds a fully isolated dispatcher (own provider
// builder, own cache) for a single file, so concurrent tasks share no
// mutable state beyond the read-only settings and base directory.
func translateOneFile(ctx context.Context, path, root string, settings *config.Settings, base string, bs *metastate.BackupStore) (fileTranslationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileTranslationResult{}, err
	}

	mime, err := mimetype.Resolve(data, "", filepath.Base(path), forceFlag, buildMimeProber(settings))
	if err != nil {
		return fileTranslationResult{}, err
	}

	opts := internal.TranslateOptions{
		TargetLang:       dirTargetLang,
		SourceLang:       dirSourceLang,
		Style:            styleFlag,
		Slang:            slangFlag,
		ForceTranslation: forceFlag,
	}
	hasData := isBinaryMime(mime)

	d, err := buildDispatcher(settings, base, opts, hasData)
	if err != nil {
		return fileTranslationResult{}, err
	}

	result, err := d.Dispatch(ctx, internal.DataAttachment{Bytes: data, Mime: mime, Name: filepath.Base(path)})
	if err != nil {
		return fileTranslationResult{}, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fileTranslationResult{}, err
	}
	destPath := filepath.Join(dirOutputDir, withSuffix(rel, dirSuffix))

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fileTranslationResult{}, err
	}
	if err := bs.Backup(destPath, dirBackupTTLDay); err != nil {
		return fileTranslationResult{}, fmt.Errorf("backup %s: %w", destPath, err)
	}
	if err := os.WriteFile(destPath, result.Bytes, 0o644); err != nil {
		return fileTranslationResult{}, err
	}

	ms := metastate.New(base)
	destHash, _ := ms.SaveDest(result.Bytes)

	return fileTranslationResult{
		destPath: destPath,
		destHash: destHash,
		mime:     result.Mime,
		model:    result.Model,
	}, nil
}

// withSuffix inserts suffix immediately before rel's extension, e.g.
// withSuffix("a/b.txt", ".fr") == "a/b.fr.txt". An empty suffix leaves rel
// unchanged.
func withSuffix(rel, suffix string) string {
	if suffix == "" {
		return rel
	}
	ext := filepath.Ext(rel)
	return rel[:len(rel)-len(ext)] + suffix + ext
}
