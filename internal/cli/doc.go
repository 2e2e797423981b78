// Package cli implements the signfetch command-line interface.
package cli
