package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/applicant-pipeline/internal/ai/gemini"
	"github.com/spigell/applicant-pipeline/internal/applicant"
	"github.com/spigell/applicant-pipeline/internal/cache"
	"github.com/spigell/applicant-pipeline/internal/secrets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultCacheDir = ".cache"

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <applicant-id>",
	Short: "Send the applicant's compressed document to the LLM and store the evaluation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		evaluate(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func evaluate(ctx context.Context, applicantID string) {
	app, err := newApplication()
	if err != nil {
		fatal("starting up", err)
	}

	evaluator, err := newEvaluator(ctx, app)
	if err != nil {
		app.logger.Fatal("building evaluator", zap.Error(err))
	}

	compressor := applicant.NewCompressor(app.tables, app.logger)
	doc, err := compressor.Compress(ctx, applicantID)
	if err != nil {
		app.logger.Fatal("compressing applicant", zap.Error(err))
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		app.logger.Fatal("serializing document", zap.Error(err))
	}

	result, err := evaluator.Evaluate(ctx, applicantID, string(payload))
	if err != nil {
		app.logger.Fatal("evaluating applicant", zap.Error(err))
	}

	if !result.Success {
		app.logger.Fatal("evaluation unusable",
			zap.String("applicant_id", applicantID),
			zap.String("error", result.Error),
		)
	}

	store := applicant.NewStore(app.tables, app.logger)
	if err := store.WriteEvaluation(ctx, applicantID, result); err != nil {
		app.logger.Fatal("saving evaluation", zap.Error(err))
	}

	fmt.Println("=== Evaluation Results ===")
	fmt.Printf("Summary: %s\n", result.Summary)
	fmt.Printf("Score: %d\n", result.Score)
	fmt.Printf("Issues: %s\n", result.Issues)
	fmt.Printf("Follow-Ups:\n%s\n", result.FollowUps)
}

func newEvaluator(ctx context.Context, app *application) (*gemini.Evaluator, error) {
	cfg := app.config.Gemini
	if cfg == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}
	if strings.Contains(apiKey, "${") {
		return nil, fmt.Errorf("gemini api key contains an unexpanded placeholder, is the environment variable set?")
	}

	genLogger := app.logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Model),
	)

	generator, err := gemini.NewGenerator(ctx, genLogger, apiKey, cfg.Model, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}

	cacheDir := defaultCacheDir
	if app.config.Cache != nil && app.config.Cache.Dir != "" {
		cacheDir = app.config.Cache.Dir
	}

	store, err := cache.NewFileCache(cacheDir)
	if err != nil {
		return nil, err
	}

	return gemini.NewEvaluator(generator, store, genLogger, cfg.MaxLogLength), nil
}
