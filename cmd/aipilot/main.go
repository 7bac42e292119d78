// Command aipilot ingests course material and retrieves grounding context.
package main

import (
	"fmt"
	"os"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app, err := bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "aipilot: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetServices(app.services)

	err = cli.Execute()
	app.Close()
	if err != nil {
		os.Exit(1)
	}
}
