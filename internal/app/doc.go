// Package app loads configuration and builds the dependency graph for the
// CLI binaries.
package app
