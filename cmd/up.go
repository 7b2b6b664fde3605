package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dst-dns/ciu/internal/hooks"
	"github.com/dst-dns/ciu/internal/pipeline"
	"github.com/dst-dns/ciu/internal/vault"
)

var (
	flagComposeFile string
	flagDryRun      bool
	flagSkipHooks   bool
	flagSkipSecrets bool
	flagFreshState  bool
	flagVaultAddr   string
	flagVaultMount  string
)

func init() {
	upCmd.Flags().StringVarP(&flagComposeFile, "file", "f", "docker-compose.yml", "compose file inside the stack directory")
	upCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render, resolve, and run hooks without executing compose")
	upCmd.Flags().BoolVar(&flagSkipHooks, "skip-hooks", false, "skip pre- and post-compose hooks")
	upCmd.Flags().BoolVar(&flagSkipSecrets, "skip-secrets", false, "leave secret directives unresolved")
	upCmd.Flags().BoolVar(&flagFreshState, "fresh-state", false, "discard carried-over secret state before rendering")
	upCmd.Flags().StringVar(&flagVaultAddr, "vault-addr", "", "vault address; overrides config")
	upCmd.Flags().StringVar(&flagVaultMount, "vault-mount", "", "vault KV mount; overrides config")

	rootCmd.AddCommand(upCmd)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Render the configuration chain and bring the stack up",
	Long: `Renders the layered configuration templates, runs pre-compose hooks,
resolves secret directives, executes the compose step with the merged
configuration flattened into environment variables, and finishes with
post-compose hooks.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func runUp(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}

	opts.DryRun = flagDryRun
	opts.SkipHooks = flagSkipHooks
	opts.SkipSecrets = flagSkipSecrets

	outcome, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	log.Info().
		Int("env_vars", len(outcome.ComposeEnv)).
		Str("stack", opts.StackDir).
		Msg("stack is up")

	return nil
}

// buildOptions assembles pipeline options shared by up and render.
func buildOptions() (pipeline.Options, error) {
	stackDir, repoRoot, err := resolveDirs()
	if err != nil {
		return pipeline.Options{}, err
	}

	env := envSnapshot()

	registry := hooks.NewRegistry()
	if err := hooks.RegisterBuiltins(registry); err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		RepoRoot:      repoRoot,
		StackDir:      stackDir,
		Env:           env,
		ComposeFile:   detectComposeFile(stackDir, flagComposeFile),
		PreserveState: !flagFreshState,
		Registry:      registry,
		StoreFactory:  storeFactory(env),
	}, nil
}

// detectComposeFile prefers the templated variant of the compose file when
// one exists next to the stack configuration.
func detectComposeFile(stackDir, name string) string {
	templated := name + ".j2"
	if _, err := os.Stat(filepath.Join(stackDir, templated)); err == nil {
		return templated
	}
	return name
}

// storeFactory builds vault clients authenticated with the token from the
// startup environment snapshot.
func storeFactory(env map[string]string) pipeline.StoreFactory {
	return func(address, mount string) (vault.Store, error) {
		if flagVaultAddr != "" {
			address = flagVaultAddr
		}
		if flagVaultMount != "" {
			mount = flagVaultMount
		}

		token := env["VAULT_TOKEN"]
		if token == "" {
			return nil, fmt.Errorf("VAULT_TOKEN is not set; cannot reach the secret store at %s", address)
		}

		return vault.NewBridge(address, mount, token)
	}
}
