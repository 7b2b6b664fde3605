package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/pipeline"
	"github.com/dst-dns/ciu/internal/secrets"
)

var flagValidateStrict bool

func init() {
	validateCmd.Flags().BoolVar(&flagValidateStrict, "strict", false, "fail when any directive remains unresolved")

	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Render the chain and report unresolved secret directives",
	Long: `Renders the configuration chain and lists every value that still
parses as a secret directive. These are the values a deployment run
would have to resolve before the compose step.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	opts.RenderOnly = true

	outcome, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	unresolved := secrets.FindUnresolved(outcome.Merged)
	if len(unresolved) == 0 {
		log.Info().Msg("no unresolved directives")
		return nil
	}

	for _, path := range unresolved {
		fmt.Println(path)
	}

	if flagValidateStrict {
		return fmt.Errorf("%d unresolved directives", len(unresolved))
	}

	log.Warn().Int("count", len(unresolved)).Msg("directives pending resolution")
	return nil
}
