// Package cli provides shared helpers for the cg3kit command-line tools:
// output formatting, command error wrapping, and signal-aware contexts.
package cli
