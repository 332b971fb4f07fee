package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/applicant-pipeline/internal/applicant"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var compressCmd = &cobra.Command{
	Use:   "compress <applicant-id>",
	Short: "Gather the applicant's child rows into one JSON document and store it on the parent record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		compress(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(compressCmd)
}

func compress(ctx context.Context, applicantID string) {
	app, err := newApplication()
	if err != nil {
		fatal("starting up", err)
	}

	compressor := applicant.NewCompressor(app.tables, app.logger)

	doc, err := compressor.Compress(ctx, applicantID)
	if err != nil {
		app.logger.Fatal("compressing applicant", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(doc, "", "  ")
	fmt.Println(string(pretty))
}
