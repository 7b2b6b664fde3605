package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the configuration chain without deploying",
	Long: `Renders the layered configuration templates and writes the rendered
TOML files, leaving hooks, secret resolution, and the compose step
untouched. Useful for inspecting what a deployment would see.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	opts.RenderOnly = true

	outcome, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	log.Info().
		Int("global_keys", len(outcome.Global)).
		Int("stack_keys", len(outcome.Stack)).
		Msg("configuration rendered")

	return nil
}
