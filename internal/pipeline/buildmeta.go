package pipeline

import (
	"os/exec"
	"strings"
	"time"

	"github.com/dst-dns/ciu/internal/config"
)

// injectBuildMetadata records build provenance under auto_generated so
// compose templates can tag images and containers with it.
func injectBuildMetadata(tree config.Tree, repoRoot string) {
	meta, ok := tree["auto_generated"].(map[string]any)
	if !ok {
		meta = map[string]any{}
		tree["auto_generated"] = meta
	}

	meta["build_version"] = buildVersion(repoRoot)
	meta["build_time"] = time.Now().UTC().Format(time.RFC3339)
}

// buildVersion returns the short git commit hash, suffixed with -dirty when
// the working tree has local changes. Outside a git checkout it falls back
// to "dev".
func buildVersion(repoRoot string) string {
	hash, err := gitOutput(repoRoot, "rev-parse", "--short=8", "HEAD")
	if err != nil {
		return "dev"
	}

	status, err := gitOutput(repoRoot, "status", "--porcelain")
	if err != nil {
		return "dev"
	}

	if status != "" {
		return hash + "-dirty"
	}

	return hash
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
