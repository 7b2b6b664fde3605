package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/config"
)

var (
	flagDir     string
	flagRoot    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ciu",
	Short: "Layered TOML configuration and deployment pipeline",
	Long: `ciu renders layered TOML configuration templates, resolves secret
directives against local state and HashiCorp Vault, runs deployment
hooks, and brings up the stack's compose file with the merged
configuration exported as environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "stack directory (defaults to the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "repository root (auto-detected if omitted)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(initLogger)
}

func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)
}

// resolveDirs returns the stack directory and repository root to operate on,
// preferring the CLI flags over auto-detection.
func resolveDirs() (stackDir, repoRoot string, err error) {
	stackDir = flagDir
	if stackDir == "" {
		stackDir, err = os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getting working directory: %w", err)
		}
	}

	repoRoot = flagRoot
	if repoRoot == "" {
		repoRoot, err = config.FindRepoRoot(stackDir)
		if err != nil {
			return "", "", err
		}
	}

	return stackDir, repoRoot, nil
}

// envSnapshot captures the process environment as a map.
func envSnapshot() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[name] = value
	}
	return env
}
