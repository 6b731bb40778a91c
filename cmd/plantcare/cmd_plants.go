package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agenthands/plantcare/internal/core/model"
)

var plantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "Inspect the plant list",
}

var plantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all plants in the order they were added",
	Args:  cobra.NoArgs,
	RunE:  runPlantsList,
}

func init() {
	plantsCmd.AddCommand(plantsListCmd)
}

func runPlantsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	plants, err := a.Pipeline.ListPlants(ctx)
	if err != nil {
		return err
	}
	if plants == nil {
		plants = []model.PlantRecord{}
	}
	return printJSON(cmd.OutOrStdout(), plants)
}
