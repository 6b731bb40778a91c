package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/plantcare/internal/core/model"
)

var saveResult bool

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the plant in a photo",
	Long: `Run species identification, health analysis and care advice on a photo
and print the composite result. With --save the result is added to the plant list.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	identifyCmd.Flags().BoolVar(&saveResult, "save", false, "Add the result to the plant list")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	outcome := <-a.Pipeline.RunAsync(ctx, image)
	if outcome.Err != nil {
		return fmt.Errorf("identification failed: %w", outcome.Err)
	}

	out := struct {
		Result *model.PipelineResult `json:"result"`
		Plant  *model.PlantRecord    `json:"plant,omitempty"`
	}{Result: outcome.Result}

	if saveResult {
		out.Plant, err = a.Pipeline.Commit(ctx, *outcome.Result)
		if err != nil {
			return err
		}
	}

	return printJSON(cmd.OutOrStdout(), out)
}
