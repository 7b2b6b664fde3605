// Package exec runs the externally managed compose step as a child process
// with the flattened configuration environment injected.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Run executes a child process in dir with the given extra environment.
// Extra values are merged over the current process environment and override
// existing keys. Stdin, stdout, and stderr are inherited so compose output
// streams through. The returned error preserves the child's exit code when
// available.
func Run(ctx context.Context, command []string, dir string, env map[string]string) error {
	if len(command) == 0 {
		return fmt.Errorf("command must not be empty")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), env)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting command %q: %w", command[0], err)
	}

	stop := relaySignals(ctx, cmd.Process)
	defer stop()

	return cmd.Wait()
}

// ExitCode extracts the exit code from an error returned by Run. Returns 0
// for nil, the child's code for an *exec.ExitError, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return 1
}

// mergeEnv combines the current process environment with additional env
// vars. Additional values override existing ones with the same key. Neither
// input is mutated.
func mergeEnv(current []string, additional map[string]string) []string {
	envMap := make(map[string]string, len(current)+len(additional))

	for _, entry := range current {
		key, value := splitEnvEntry(entry)
		if key != "" {
			envMap[key] = value
		}
	}

	for k, v := range additional {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}

	return result
}

// splitEnvEntry splits a "KEY=VALUE" string into key and value. Without a
// separator the full string is the key with an empty value.
func splitEnvEntry(entry string) (string, string) {
	for i := range entry {
		if entry[i] == '=' {
			return entry[:i], entry[i+1:]
		}
	}

	return entry, ""
}
