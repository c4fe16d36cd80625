package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"complaintdraft-backend/config"
	"complaintdraft-backend/schema"
	"complaintdraft-backend/storage"
	"complaintdraft-backend/triage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose    bool
	sourcePath string
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "check-schemas [offense...]",
	Short: "Validate offense schemas and triage rules",
	Long: `Loads each offense schema with its mixins, checks slot coverage and compiles
the offense's triage rules. With no arguments the PRELOAD_OFFENSES list is checked.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runCheck,
}

var scoreCmd = &cobra.Command{
	Use:   "score <offense> <text>",
	Short: "Score a narrative against an offense's triage rules",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runScore,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sourcePath, "source", "", "local schema directory (overrides SCHEMA_STORAGE_*)")
	rootCmd.AddCommand(scoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func schemaSource() (storage.Storage, *config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if sourcePath != "" {
		cfg.SchemaStorage = storage.StorageConfig{Type: storage.StorageTypeLocal, LocalPath: sourcePath}
	}
	source, err := storage.NewStorage(cfg.SchemaStorage)
	if err != nil {
		return nil, nil, err
	}
	return source, cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	source, cfg, err := schemaSource()
	if err != nil {
		return err
	}
	keys := args
	if len(keys) == 0 {
		keys = cfg.PreloadOffenses
	}

	ctx := context.Background()
	loader := schema.NewLoader(source, schema.WithLogger(logger))
	evaluator := triage.NewEvaluator(source, triage.WithLogger(logger))

	failed := 0
	for _, key := range keys {
		offense, err := loader.Load(ctx, key)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", key, err)
			continue
		}

		rules, err := evaluator.Rules(ctx, key)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", key, err)
			continue
		}

		triageInfo := "no triage rules"
		if rules != nil {
			triageInfo = fmt.Sprintf("triage %s with %d options", rules.Reason, len(rules.Options))
			for _, opt := range rules.Options {
				if opt.SwitchTo == "" {
					continue
				}
				if _, err := loader.Load(ctx, opt.SwitchTo); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: option %s switches to %s: %v\n", key, opt.Key, opt.SwitchTo, err)
				}
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d elements, %d party questions, %s\n",
			key, len(offense.Elements), len(offense.PartyInfo), triageInfo)
	}

	if failed > 0 {
		return fmt.Errorf("%d problem(s) found", failed)
	}
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	source, _, err := schemaSource()
	if err != nil {
		return err
	}

	offense, text := args[0], strings.Join(args[1:], " ")
	rules, err := triage.NewEvaluator(source, triage.WithLogger(logger)).Rules(context.Background(), offense)
	if err != nil {
		return err
	}
	if rules == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s has no triage rules\n", offense)
		return nil
	}

	scores := rules.Score(text)
	fmt.Fprintf(cmd.OutOrStdout(), "strong=%d weak=%d negate=%d thresholds=%+v fires=%t\n",
		scores.Strong, scores.Weak, scores.Negate, rules.Thresholds, scores.Fires(rules.Thresholds))
	return nil
}
