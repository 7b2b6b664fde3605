package hooks

import (
	"os"
	"time"
)

// RegisterBuiltins installs the hook units that ship with the tool.
// External callers extend the registry with their own units before the
// pipeline runs.
func RegisterBuiltins(r *Registry) error {
	return r.Register("host-info", Func(hostInfo))
}

// hostInfo exports basic host metadata to the phase environment so compose
// templates and later units can reference where and when the run happened.
func hostInfo(cfg map[string]any, env map[string]string) (map[string]any, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return map[string]any{
		"DEPLOY_HOSTNAME":   hostname,
		"DEPLOY_STARTED_AT": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
