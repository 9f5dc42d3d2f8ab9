// Package cli wires the application and exposes its command tree.
package cli

import (
	"os"
)

// Run executes the root command and exits non-zero on failure.
func Run() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
