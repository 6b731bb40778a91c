package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenthands/plantcare/internal/app"
	"github.com/agenthands/plantcare/internal/config"
)

var (
	identURL   string
	identToken string

	genProvider    string
	genURL         string
	genToken       string
	genVisionModel string
	genTextModel   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change remote service settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings with tokens masked",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetIdentificationCmd = &cobra.Command{
	Use:   "set-identification",
	Short: "Save the species identification service settings",
	Long:  `Save the identification API URL and token. Flags that are not given keep their current value.`,
	Args:  cobra.NoArgs,
	RunE:  runSetIdentification,
}

var settingsSetGenerativeCmd = &cobra.Command{
	Use:   "set-generative",
	Short: "Save the generative model settings",
	Long:  `Save the provider, API URL, token and model names. Flags that are not given keep their current value.`,
	Args:  cobra.NoArgs,
	RunE:  runSetGenerative,
}

var settingsSetLocaleCmd = &cobra.Command{
	Use:   "set-locale <locale>",
	Short: "Choose the language of prompts and placeholder texts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetLocale,
}

func init() {
	f := settingsSetIdentificationCmd.Flags()
	f.StringVar(&identURL, "url", "", "Identification API base URL")
	f.StringVar(&identToken, "token", "", "Identification API token")

	f = settingsSetGenerativeCmd.Flags()
	f.StringVar(&genProvider, "provider", "", "Provider: openai, ollama, claude or gemini")
	f.StringVar(&genURL, "url", "", "Generative API base URL")
	f.StringVar(&genToken, "token", "", "Generative API token")
	f.StringVar(&genVisionModel, "vision-model", "", "Model used for health analysis")
	f.StringVar(&genTextModel, "text-model", "", "Model used for care advice")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetIdentificationCmd)
	settingsCmd.AddCommand(settingsSetGenerativeCmd)
	settingsCmd.AddCommand(settingsSetLocaleCmd)
}

// openSettings opens the settings file without connecting any store.
func openSettings() (*config.FileSettings, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return config.NewFileSettings(filepath.Join(cfg.Storage.DataDir, app.SettingsFile)), nil
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	s, err := openSettings()
	if err != nil {
		return err
	}
	current, err := s.Current(context.Background())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), current.Masked())
}

// setIfChanged copies val into dst only when the named flag was given.
func setIfChanged(cmd *cobra.Command, name string, dst *string, val string) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

func runSetIdentification(cmd *cobra.Command, args []string) error {
	s, err := openSettings()
	if err != nil {
		return err
	}
	ctx := context.Background()
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}

	next := current.Identification
	setIfChanged(cmd, "url", &next.APIURL, identURL)
	setIfChanged(cmd, "token", &next.Token, identToken)

	if err := s.SaveIdentification(ctx, next); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Identification settings saved to", s.Path())
	return nil
}

func runSetGenerative(cmd *cobra.Command, args []string) error {
	s, err := openSettings()
	if err != nil {
		return err
	}
	ctx := context.Background()
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}

	next := current.Generative
	if cmd.Flags().Changed("provider") {
		next = next.SwitchProvider(genProvider)
	}
	setIfChanged(cmd, "url", &next.APIURL, genURL)
	setIfChanged(cmd, "token", &next.Token, genToken)
	setIfChanged(cmd, "vision-model", &next.VisionModel, genVisionModel)
	setIfChanged(cmd, "text-model", &next.TextModel, genTextModel)

	if err := s.SaveGenerative(ctx, next); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Generative settings saved to", s.Path())
	return nil
}

func runSetLocale(cmd *cobra.Command, args []string) error {
	s, err := openSettings()
	if err != nil {
		return err
	}
	if err := s.SaveLocale(context.Background(), args[0]); err != nil {
		return fmt.Errorf("%w (supported: %v)", err, config.Locales())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Locale set to", args[0])
	return nil
}
