package cmd

import (
	"github.com/spigell/applicant-pipeline/internal/applicant"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var replacePrompt = promptui.Select{
	Label: "Decompression replaces all work experience rows for the applicant. Proceed?",
	Items: []string{PromptYes, PromptNo},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <applicant-id>",
	Short: "Expand the stored JSON document back into the applicant's child tables",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		decompress(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(decompressCmd)

	decompressCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before replacing work experience rows")
}

func decompress(cmd *cobra.Command, applicantID string) {
	ctx := cmd.Context()

	app, err := newApplication()
	if err != nil {
		fatal("starting up", err)
	}

	if cmd.Flag("yes").Value.String() == "false" {
		_, action, err := replacePrompt.Run()
		if err != nil {
			app.logger.Fatal("exiting", zap.Error(err))
		}

		if action == PromptNo {
			app.logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	decompressor := applicant.NewDecompressor(app.tables, app.logger)

	if err := decompressor.DecompressAndUpsert(ctx, applicantID); err != nil {
		app.logger.Fatal("decompressing applicant", zap.Error(err))
	}
}
