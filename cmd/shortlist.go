package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/applicant-pipeline/internal/applicant"
	"github.com/spigell/applicant-pipeline/internal/shortlist"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shortlistCmd = &cobra.Command{
	Use:   "shortlist <applicant-id>",
	Short: "Score the applicant against the eligibility rules and record the verdict",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		shortlistRun(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(shortlistCmd)
}

func shortlistRun(ctx context.Context, applicantID string) {
	app, err := newApplication()
	if err != nil {
		fatal("starting up", err)
	}

	compressor := applicant.NewCompressor(app.tables, app.logger)
	doc, err := compressor.Compress(ctx, applicantID)
	if err != nil {
		app.logger.Fatal("compressing applicant", zap.Error(err))
	}

	scorer := shortlist.NewScorer(app.tables, app.logger)
	verdict, err := scorer.Evaluate(ctx, doc)
	if err != nil {
		app.logger.Fatal("recording shortlist verdict", zap.Error(err))
	}

	status := "rejected"
	if verdict.Passed {
		status = "shortlisted"
	}

	fmt.Printf("%s: %s (%s)\n", applicantID, status, verdict.Reason)
}
