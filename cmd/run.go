package cmd

import (
	"context"
	"time"

	"github.com/spigell/applicant-pipeline/internal/pipeline"
	"github.com/spigell/applicant-pipeline/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultRunDelay = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run <applicant-id> [<applicant-id> ...]",
	Short: "Run the full pipeline for one or more applicants: compress, shortlist and evaluate",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context, applicantIDs []string) {
	app, err := newApplication()
	if err != nil {
		fatal("starting up", err)
	}

	app.logger.Info("starting the applicant-pipeline", zap.String("version", version))

	evaluator, err := newEvaluator(ctx, app)
	if err != nil {
		app.logger.Fatal("building evaluator", zap.Error(err))
	}

	runner := pipeline.New(app.tables, evaluator, app.logger)

	delay := defaultRunDelay
	if app.config.Run != nil && app.config.Run.Delay > 0 {
		delay = app.config.Run.Delay
	}

	for i, id := range applicantIDs {
		if i > 0 {
			app.logger.Debug("waiting before next applicant", zap.Duration("delay", delay))
			if err := utils.WaitFor(ctx, delay); err != nil {
				app.logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := runner.Run(ctx, id); err != nil {
			app.logger.Fatal("processing applicant",
				zap.String("applicant_id", id),
				zap.Error(err),
			)
		}
	}

	app.logger.Info("all applicants processed", zap.Int("count", len(applicantIDs)))
}
