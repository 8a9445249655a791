// Package store persists translation memory across runs: a SQLite-backed
// cache from (source text, source lang, target lang) to the translated
// result, independent of and longer-lived than the per-document
// in-memory cache (component B). Grounded on the teacher's
// internal/store/store.go (SQLite schema, fuzzy-match lookup via
// Levenshtein similarity), re-themed around AttachmentTranslation-style
// cache-hit tracking for the `show cache` command and stripped of the
// teacher's multi-service arbitration and CSV/glossary tables — this
// module has no service-arbitration pass (§4.C is a single tool-calling
// round trip per segment) and no CSV-cell or glossary workflow (dropped
// as features, see DESIGN.md).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
	"golang.org/x/text/unicode/norm"
)

// Store wraps a SQLite database holding persistent translation memory.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the SQLite database at dbPath and
// runs its migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		model TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetCachedTranslation returns the persisted translation for sourceText
// under (sourceLang, targetLang), bumping its usage count and last-used
// timestamp on a hit. An invalidated entry is reported as a miss.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var translatedText string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&translatedText, &invalidated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), normalizeText(sourceText), sourceLang, targetLang)

	return translatedText, true, err
}

// SaveToMemory persists (or replaces) the translated result for one
// source segment, tagged with the model that produced it.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, translatedText, model string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, model, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(sourceText), sourceLang, targetLang, translatedText, model, time.Now(), time.Now())
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	Translated  string
	Model       string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarizes translation memory usage for `show cache`.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// InvalidateMemory marks an entry as invalid without deleting it, so a
// future identical segment is retranslated rather than served stale.
func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries, returning the
// number of rows deleted.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most
// recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, model, usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Translated, &e.Model, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory, backing
// the `show cache` command.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				min := prev[j]
				if prev[j-1] < min {
					min = prev[j-1]
				}
				if curr[j-1] < min {
					min = curr[j-1]
				}
				curr[j] = min + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// stringSimilarity returns a similarity score in [0, 1] (1 = identical).
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// FuzzyGetCachedTranslation returns a cached translation whose normalized
// source text has at least threshold similarity (0-1) to sourceText. Pass
// threshold <= 0 to disable (always returns "", false, nil). To avoid
// O(n^2) cost, texts longer than 1000 runes are not fuzzy-matched.
func (s *Store) FuzzyGetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string, threshold float64) (string, bool, error) {
	if threshold <= 0 {
		return "", false, nil
	}

	normalized := normalizeText(sourceText)
	const maxFuzzyRunes = 1000
	if len([]rune(normalized)) > maxFuzzyRunes {
		return "", false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, translated_text FROM translation_memory
		 WHERE source_lang = ? AND target_lang = ? AND NOT invalidated`,
		sourceLang, targetLang)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	var best string
	bestScore := 0.0

	for rows.Next() {
		var srcText, translatedText string
		if err := rows.Scan(&srcText, &translatedText); err != nil {
			return "", false, err
		}

		// Quick length pre-filter: if the length difference alone makes it
		// impossible to reach the threshold, skip the expensive edit distance.
		ls, lr := len([]rune(normalized)), len([]rune(srcText))
		maxL := ls
		if lr > maxL {
			maxL = lr
		}
		diff := ls - lr
		if diff < 0 {
			diff = -diff
		}
		if maxL > 0 && 1.0-float64(diff)/float64(maxL) < threshold {
			continue
		}

		score := stringSimilarity(normalized, srcText)
		if score >= threshold && score > bestScore {
			bestScore = score
			best = translatedText
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	if best != "" {
		return best, true, nil
	}
	return "", false, nil
}
