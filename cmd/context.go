package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/config"
	"github.com/dst-dns/ciu/internal/pipeline"
)

var flagContextFlat bool

func init() {
	contextCmd.Flags().BoolVar(&flagContextFlat, "flat", false, "print the flattened NAME=value environment instead of JSON")

	rootCmd.AddCommand(contextCmd)
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the merged configuration for the current stack",
	Long: `Renders the configuration chain and prints the merged result to
stdout, either as JSON or flattened into the NAME=value pairs the
compose step would receive. Secret directives are left unresolved.`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	opts.RenderOnly = true

	outcome, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if flagContextFlat {
		printFlat(outcome.Merged)
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcome.Merged); err != nil {
		return fmt.Errorf("encoding merged configuration: %w", err)
	}

	return nil
}

func printFlat(merged config.Tree) {
	flat := config.FlattenEnv(merged)

	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s=%s\n", name, flat[name])
	}
}
