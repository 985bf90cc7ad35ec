// Command envoy is the CLI front-end over the core environment-composition
// engine and command registry.
package main

import (
	"fmt"
	"os"

	"github.com/gtvfx-contrib/envoy/cmd/envoy/app"
)

func main() {
	if err := app.NewEnvoyCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
