// Package main is the single-binary entrypoint for IRL, the Solo Leveling
// style rules engine for real-life habits.
package main

import "github.com/sololeveling-irl/irl/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
