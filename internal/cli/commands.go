package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/models"
	"github.com/LeeDohoun/HQA-Project/internal/supervisor"
)

// NewRootCmd builds the command tree. Configuration comes from the
// environment once and is shared by every subcommand.
func NewRootCmd() *cobra.Command {
	cfg := config.LoadFromEnv()

	rootCmd := &cobra.Command{
		Use:   "hqa",
		Short: "HQA - multi-agent Korean equity analysis",
		Long: `HQA runs a hegemony, quant and chartist agent team over a KRX-listed
company and fuses their scores into a single investment decision.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
				cfg.LogLevel = "debug"
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create working directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newAskCmd(cfg))
	rootCmd.AddCommand(newIngestCmd(cfg))
	rootCmd.AddCommand(newTasksCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [CODE]",
		Short: "Analyze one KRX-listed company",
		Long: `Run the full agent workflow for a 6-digit KRX stock code.
Example: hqa analyze 005930 --name 삼성전자`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			quick, _ := cmd.Flags().GetBool("quick")

			mode := consts.ModeFull
			if quick {
				mode = consts.ModeQuick
			}
			req, err := models.NewAnalysisRequest(args[0], name, mode)
			if err != nil {
				return err
			}
			return runAnalyzeCommand(cmd.Context(), cfg, req)
		},
	}

	cmd.Flags().String("name", "", "Company name used in prompts and reports")
	cmd.Flags().Bool("quick", false, "Skip research and return a fast technical-leaning read")

	return cmd
}

func newAskCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [QUESTION]",
		Short: "Ask a free-form question",
		Long: `Route one free-form question through the intent resolver.
A question naming a company starts an analysis; anything else is answered
directly. Example: hqa ask "삼성전자 지금 사도 돼?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAskCommand(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}
}

func newIngestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [FILE...]",
		Short: "Index documents for retrieval",
		Long: `Index text or markdown files into the keyword and vector indices.
Each file becomes one document; the file name is its id.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestCommand(cmd.Context(), cfg, args)
		},
	}
	return cmd
}

func newTasksCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List recent analysis tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runTasksCommand(cmd.Context(), cfg, limit)
		},
	}
	cmd.Flags().Int("limit", 10, "Number of tasks to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("HQA v1.0.0")
			fmt.Println("Multi-agent equity analysis for the Korean market")
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

// runAnalyzeCommand drives one non-interactive run: stream progress to
// the terminal, then print the decision report.
func runAnalyzeCommand(ctx context.Context, cfg *config.Config, req models.AnalysisRequest) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println(titleStyle.Render(fmt.Sprintf(" %s (%s) 분석 시작 ", req.SubjectName, req.SubjectID)))

	handle, err := app.Service.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("start analysis: %w", err)
	}

	final, err := streamProgress(handle.Events)
	if err != nil {
		return err
	}
	if final.Status == consts.StateError {
		return fmt.Errorf("analysis failed: %s", final.Message)
	}

	record, err := app.Service.GetResult(ctx, handle.TaskID)
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}
	printDecision(record.Decision)
	return nil
}

// runAskCommand resolves one question without entering the interactive
// loop. Analysis intents run to completion and print the decision.
func runAskCommand(ctx context.Context, cfg *config.Config, question string) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	intent := app.Router.Route(ctx, "ask", question)
	switch intent.Kind {
	case supervisor.IntentFollowUp:
		printDecision(intent.Cached)
	case supervisor.IntentAnalyze:
		runRoutedAnalysis(ctx, app, intent)
	default:
		fmt.Println(intent.Response)
	}
	return nil
}

func runIngestCommand(ctx context.Context, cfg *config.Config, paths []string) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	indexed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc := models.Document{
			ID:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Text: string(data),
			Metadata: map[string]string{
				"source":      "file",
				"ingested_at": time.Now().Format(time.RFC3339),
			},
		}
		if err := app.Ingestor.Ingest(ctx, doc); err != nil {
			return err
		}
		indexed++
		fmt.Printf("  indexed %s\n", doc.ID)
	}
	fmt.Println(completedStyle.Render(fmt.Sprintf("%d documents indexed", indexed)))
	return nil
}

func runTasksCommand(ctx context.Context, cfg *config.Config, limit int) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Service.RecentTasks(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No tasks yet. Run 'hqa analyze <CODE>' first.")
		return nil
	}
	printTaskTable(records)
	return nil
}

func showConfig(cfg *config.Config) {
	fmt.Println(titleStyle.Render(" HQA Configuration "))
	fmt.Printf("Results directory:  %s\n", cfg.ResultsDir)
	fmt.Printf("Data directory:     %s\n", cfg.DataDir)
	fmt.Printf("Index directory:    %s\n", cfg.IndexDir)
	fmt.Println()
	fmt.Printf("LLM provider:       %s\n", cfg.LLMProvider)
	fmt.Printf("Instruct model:     %s\n", cfg.InstructModel)
	fmt.Printf("Thinking model:     %s\n", cfg.ThinkingModel)
	fmt.Printf("Embedding model:    %s\n", cfg.EmbeddingModel)
	fmt.Println()
	fmt.Printf("Engine:             %s\n", cfg.Engine)
	fmt.Printf("Branch timeout:     %s\n", cfg.BranchTimeout)
	fmt.Printf("Research retries:   %d\n", cfg.MaxRetries)
	fmt.Printf("Retrieval depth:    %d per source, rerank top %d\n", cfg.RetrievalK, cfg.RerankTopN)
	fmt.Println()
	printCredential("LLM API key", cfg.LLMAPIKey != "")
	printCredential("Embedding API key", cfg.EmbeddingAPIKey != "")
	printCredential("Reranker endpoint", cfg.RerankerURL != "")
	printCredential("Web search API key", cfg.WebSearchAPIKey != "")
	printCredential("DART API key", cfg.DartAPIKey != "")
}

func printCredential(name string, set bool) {
	if set {
		fmt.Printf("%-20s %s\n", name+":", completedStyle.Render("configured"))
	} else {
		fmt.Printf("%-20s %s\n", name+":", pendingStyle.Render("not set"))
	}
}

func validateConfig(cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("directories: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var warnings []string
	if cfg.EmbeddingAPIKey == "" {
		warnings = append(warnings, "no embedding credential, retrieval runs keyword-only")
	}
	if cfg.RerankerURL == "" {
		warnings = append(warnings, "no reranker endpoint, candidates keep fused order")
	}
	if cfg.WebSearchAPIKey == "" {
		warnings = append(warnings, "no web search key, news falls back to RSS scraping")
	}
	if cfg.DartAPIKey == "" {
		warnings = append(warnings, "no DART key, financial ratios come from web extraction")
	}

	if len(warnings) == 0 {
		fmt.Println(completedStyle.Render("Configuration OK, all sources available."))
		return nil
	}
	fmt.Println(inProgressStyle.Render(fmt.Sprintf("Configuration OK with %d degraded sources:", len(warnings))))
	for _, w := range warnings {
		fmt.Printf("  - %s\n", w)
	}
	return nil
}
