package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/config"
	"github.com/dst-dns/ciu/internal/edit"
)

var (
	flagSetGlobal bool
	flagSetDelete bool
)

func init() {
	setCmd.Flags().BoolVar(&flagSetGlobal, "global", false, "edit the repository-level overrides instead of the stack's")
	setCmd.Flags().BoolVar(&flagSetDelete, "delete", false, "remove the key instead of setting it")

	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set or delete a key in the overrides template",
	Long: `Edits the hand-maintained overrides template in place, preserving
comments and ordering. Keys are dotted paths like database.pool_size.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	stackDir, repoRoot, err := resolveDirs()
	if err != nil {
		return err
	}

	target := filepath.Join(stackDir, config.StackOverridesName)
	if flagSetGlobal {
		target = filepath.Join(repoRoot, config.GlobalOverridesName)
	}

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("overrides template %s: %w", target, err)
	}

	key := args[0]

	if flagSetDelete {
		if len(args) != 1 {
			return fmt.Errorf("--delete takes a key but no value")
		}
		if err := edit.DeleteKey(target, key); err != nil {
			return err
		}
		log.Info().Str("key", key).Str("file", target).Msg("key removed")
		return nil
	}

	if len(args) != 2 {
		return fmt.Errorf("set requires a key and a value")
	}

	if err := edit.SetKey(target, key, args[1]); err != nil {
		return err
	}

	log.Info().Str("key", key).Str("file", target).Msg("key updated")
	return nil
}
