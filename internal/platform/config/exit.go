package config

import (
	"fmt"
	"os"
)

// Exitf reports a fatal startup error on stderr and terminates the
// process with exit code 1. The server and grant-key commands use it
// for misconfiguration they cannot recover from.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
