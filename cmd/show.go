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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/polyglotter/internal/config"
	"github.com/valpere/polyglotter/internal/metastate"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
	"github.com/valpere/polyglotter/internal/store"
)

var showCacheDB string
var showReportLLM bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Inspect persisted translation state",
}

var showCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Print translation memory statistics and entries",
	RunE:  runShowCache,
}

var showHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the recorded translation history",
	RunE:  runShowHistory,
}

var showReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the session's aggregate translation activity",
	RunE:  runShowReport,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showCacheCmd)
	showCmd.AddCommand(showHistoryCmd)
	showCmd.AddCommand(showReportCmd)

	showCacheCmd.Flags().StringVar(&showCacheDB, "db", "", "translation memory database path (default <base>/.cache/memory.db)")
	showReportCmd.Flags().BoolVar(&showReportLLM, "llm", false, "append an LLM-generated prose summary of the counts")
}

func runShowCache(cmd *cobra.Command, args []string) error {
	base, err := resolveBase()
	if err != nil {
		return err
	}
	path := showCacheDB
	if path == "" {
		path = filepath.Join(base, ".cache", "memory.db")
	}

	mem, err := store.New(path)
	if err != nil {
		return fmt.Errorf("open translation memory: %w", err)
	}
	defer mem.Close()

	ctx := context.Background()
	stats, err := mem.Stats(ctx)
	if err != nil {
		return err
	}
	entries, err := mem.ListMemory(ctx)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Stats   *store.CacheStats   `json:"stats"`
		Entries []store.MemoryEntry `json:"entries"`
	}{stats, entries})
}

func runShowHistory(cmd *cobra.Command, args []string) error {
	base, err := resolveBase()
	if err != nil {
		return err
	}
	ms := metastate.New(base)
	meta, err := ms.Load()
	if err != nil {
		return err
	}
	return printJSON(meta.Histories)
}

func runShowReport(cmd *cobra.Command, args []string) error {
	base, err := resolveBase()
	if err != nil {
		return err
	}
	ms := metastate.New(base)
	meta, err := ms.Load()
	if err != nil {
		return err
	}

	report := summarizeHistories(meta.Histories)

	if showReportLLM && report.TotalTranslations > 0 {
		settings, err := loadSettings(base)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		analysis, err := generateReportAnalysis(settings, report)
		if err != nil {
			return fmt.Errorf("generate report analysis: %w", err)
		}
		report.Analysis = analysis
	}

	return printJSON(report)
}

// reportSummary is the locally computed rollup backing `show report`; with
// --llm it also carries an LLM-generated prose summary via the
// generate_report_analysis tool.
type reportSummary struct {
	TotalTranslations int            `json:"total_translations"`
	ByTargetLang      map[string]int `json:"by_target_lang"`
	ByModel           map[string]int `json:"by_model"`
	ByMime            map[string]int `json:"by_mime"`
	Analysis          string         `json:"analysis,omitempty"`
}

// generateReportAnalysis calls the generate_report_analysis tool with the
// locally computed counts as context, producing a short prose summary.
func generateReportAnalysis(settings *config.Settings, report reportSummary) (string, error) {
	builder, err := buildBuilder(settings)
	if err != nil {
		return "", err
	}
	renderer := prompt.New()
	system, err := renderer.Render("generate_report_analysis", prompt.Fields{ToolName: provider.ToolGenerateReportAnalysis})
	if err != nil {
		return "", err
	}
	builder.AppendSystemInput(system)
	builder.RegisterTool(provider.GenerateReportAnalysisTool())

	counts, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	builder.AppendUserInput(string(counts))

	resp, err := builder.CallTool(context.Background(), provider.ToolGenerateReportAnalysis)
	if err != nil {
		return "", err
	}
	summary, _ := resp.Args["summary"].(string)
	return summary, nil
}

func summarizeHistories(entries []metastate.HistoryEntry) reportSummary {
	report := reportSummary{
		ByTargetLang: make(map[string]int),
		ByModel:      make(map[string]int),
		ByMime:       make(map[string]int),
	}
	for _, e := range entries {
		report.TotalTranslations++
		report.ByTargetLang[e.TargetLang]++
		report.ByModel[e.Model]++
		report.ByMime[e.SourceMime]++
	}
	return report
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
