package config

import "errors"

// Sentinel errors for the configuration chain. Callers match with errors.Is.
var (
	// ErrConfigNotFound reports that no defaults template exists anywhere in
	// the directory chain.
	ErrConfigNotFound = errors.New("no defaults template found in config chain")

	// ErrConfigConflict reports an overrides template in a directory that has
	// no matching defaults template.
	ErrConfigConflict = errors.New("overrides template present without defaults template")
)
