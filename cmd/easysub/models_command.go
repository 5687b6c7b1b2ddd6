package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/gemini"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.HasGeminiKey() {
				return errors.New("no Gemini API key configured; run easysub doctor for setup hints")
			}

			client := gemini.NewClient(gemini.Config(cfg.GeminiOptions()))
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if jsonOut {
				return writeJSON(cmd, models)
			}

			configured := client.Model()
			rows := make([][]string, 0, len(models))
			for _, model := range models {
				marker := ""
				if model.Name == configured {
					marker = "*"
				}
				rows = append(rows, []string{marker, model.Name, model.DisplayName})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"", "Model", "Display name"}, rows, nil))
			fmt.Fprintf(out, "* configured default (%s)\n", configured)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the model list as JSON")
	return cmd
}
