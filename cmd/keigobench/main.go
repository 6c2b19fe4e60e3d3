package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/KeigoBench/internal/analyze"
	"github.com/TobiSchelling/KeigoBench/internal/compose"
	"github.com/TobiSchelling/KeigoBench/internal/config"
	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/evaluate"
	"github.com/TobiSchelling/KeigoBench/internal/pipeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	runID      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "keigobench",
	Short:   "Politeness-register robustness benchmark for Japanese QA",
	Long:    "KeigoBench rewrites dataset questions into casual, standard, sonkeigo and kenjougo registers, measures their linguistic divergence and evaluates answer accuracy per register.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		_ = godotenv.Load(".env")

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		logConf := cfg.Logging.Conf()
		if verbose {
			logConf.Level = logging.LogLevel("debug")
		}
		logging.SetupLogging(logConf)
		runID = uuid.New().String()
		log.Logger = log.Logger.With().Str("run", runID).Logger()
		log.Debug().Str("config", path).Msg("Configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(runCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("keigobench", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/keigobench/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the dataset, providers and API key variables.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset, corpus and report status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Dataset:")
		fmt.Printf("  Path: %s (%s)\n", cfg.Dataset.Path, cfg.Dataset.Format)
		if ok, _ := checkFile(cfg.Dataset.Path); !ok {
			fmt.Println("  Missing")
		}

		fmt.Println("\nCorpus:")
		fmt.Printf("  Path: %s\n", cfg.Rewrite.Output)
		entries, err := corpus.Load(cfg.Rewrite.Output)
		switch {
		case err == nil:
			fmt.Printf("  Entries: %d\n", len(entries))
		case errors.Is(err, os.ErrNotExist):
			fmt.Println("  Not built yet")
		default:
			fmt.Printf("  Unreadable: %v\n", err)
		}

		fmt.Println("\nAccuracy reports:")
		reports, err := evaluate.Summarize(cfg.Evaluate.OutputDir)
		if err != nil {
			fmt.Printf("  Unreadable: %v\n", err)
			return nil
		}
		if len(reports) == 0 {
			fmt.Println("  None")
		}
		for _, r := range reports {
			fmt.Printf("  %s\n", r.Line())
		}
		return nil
	},
}

// --- stage commands ---

var resume bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite dataset questions into every configured register",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preflightRewrite(cfg); err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		pipe := pipeline.New(cfg)
		pipe.Resume = resume
		return report(pipe.RunRewrite(ctx))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute lexical and grammatical divergence of the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preflightCorpus(cfg); err != nil {
			return err
		}
		step, rep := pipeline.NewWithProviders(cfg, nil, nil, nil).RunAnalyze()
		if rep != nil {
			fmt.Println()
			rep.Table(os.Stdout)
		}
		return report(step)
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate answer accuracy for every configured style",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preflightCorpus(cfg); err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		step, reports := pipeline.New(cfg).RunEvaluate(ctx)
		printAccuracy(reports)
		return report(step)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Re-aggregate saved accuracy reports without querying the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := evaluate.Summarize(cfg.Evaluate.OutputDir)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Printf("No accuracy reports found in %s\n", cfg.Evaluate.OutputDir)
		}
		printAccuracy(reports)

		if markdownOut == "" && htmlOut == "" {
			return nil
		}
		div, err := analyze.LoadJSON(cfg.Analyze.Output)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading divergence report: %w", err)
		}
		doc := compose.Report("KeigoBench results", div, reports)
		if markdownOut != "" {
			if err := os.WriteFile(markdownOut, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("writing markdown: %w", err)
			}
			fmt.Printf("\nMarkdown report: %s\n", markdownOut)
		}
		if htmlOut != "" {
			page, err := compose.HTML("KeigoBench results", doc)
			if err != nil {
				return fmt.Errorf("rendering html: %w", err)
			}
			if err := os.WriteFile(htmlOut, []byte(page), 0o644); err != nil {
				return fmt.Errorf("writing html: %w", err)
			}
			fmt.Printf("HTML report: %s\n", htmlOut)
		}
		return nil
	},
}

var markdownOut, htmlOut string

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: rewrite -> analyze -> evaluate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preflightRewrite(cfg); err != nil {
			return err
		}

		var result *pipeline.Result
		if dryRun {
			result = pipeline.NewWithProviders(cfg, nil, nil, nil).DryRun(runID)
		} else {
			ctx, cancel := signalContext()
			defer cancel()
			pipe := pipeline.New(cfg)
			pipe.Resume = resume
			result = pipe.Run(ctx, runID)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if result.Analysis != nil {
			fmt.Println()
			result.Analysis.Table(os.Stdout)
		}
		printAccuracy(result.Accuracy)

		if result.Failed() {
			return errors.New("pipeline finished with errors")
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'keigobench summarize' to review accuracy later.")
		}
		return nil
	},
}

func init() {
	rewriteCmd.Flags().BoolVar(&resume, "resume", false, "Continue from an existing corpus checkpoint")
	runCmd.Flags().BoolVar(&resume, "resume", false, "Continue from an existing corpus checkpoint")
	summarizeCmd.Flags().StringVar(&markdownOut, "markdown", "", "Also write a Markdown report to this path")
	summarizeCmd.Flags().StringVar(&htmlOut, "html", "", "Also write an HTML report to this path")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

func report(step pipeline.StepResult) error {
	if step.Err != nil {
		return fmt.Errorf("%s: %w", step.Name, step.Err)
	}
	fmt.Printf("\n%s: %s\n", step.Name, step.Summary)
	return nil
}

func printAccuracy(reports []*evaluate.Report) {
	if len(reports) == 0 {
		return
	}
	fmt.Println("\nAccuracy:")
	for _, r := range reports {
		fmt.Printf("  %s\n", r.Line())
	}
}
