package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/config"
	"github.com/dst-dns/ciu/internal/migrate"
)

var (
	flagMigrateStackKey string
	flagMigrateWrite    bool
)

func init() {
	migrateCmd.Flags().StringVar(&flagMigrateStackKey, "stack-key", "", "stack section name (defaults to the stack directory name)")
	migrateCmd.Flags().BoolVar(&flagMigrateWrite, "write", false, "write the result to the overrides template instead of stdout")

	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <env-file>",
	Short: "Convert a legacy env file into an overrides template",
	Long: `Parses a legacy KEY=VALUE env file and converts it into an overrides
template skeleton. Variables following the legacy secret naming
conventions become secret directives; everything else becomes a plain
env entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Migration happens before a repository chain exists, so only the
	// stack directory matters here.
	stackDir := flagDir
	if stackDir == "" {
		var err error
		stackDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
	}

	stackKey := flagMigrateStackKey
	if stackKey == "" {
		stackKey = filepath.Base(stackDir)
	}

	entries, err := migrate.ParseEnvFile(args[0])
	if err != nil {
		return err
	}

	doc, err := migrate.Convert(entries, stackKey)
	if err != nil {
		return err
	}

	text, err := migrate.FormatTOML(doc)
	if err != nil {
		return err
	}

	if !flagMigrateWrite {
		fmt.Print(text)
		return nil
	}

	target := filepath.Join(stackDir, config.StackOverridesName)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("overrides template %s already exists; refusing to overwrite", target)
	}

	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing overrides template %s: %w", target, err)
	}

	log.Info().
		Int("entries", len(entries)).
		Str("file", target).
		Msg("legacy env file migrated")

	return nil
}
