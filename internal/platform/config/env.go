// Package config holds the small pieces the tidechest binaries share
// for bootstrapping: environment parsing for TIDECHEST_-prefixed
// settings and a fatal-exit helper for their entry points.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from environment variables declared through
// `env` struct tags. Defaults on the struct apply when a variable is
// unset.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
