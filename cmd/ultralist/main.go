package main

import (
	"fmt"
	"os"

	"github.com/tgienger/ultralist/internal/cli"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	v := fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	if err := cli.Execute(v); err != nil {
		os.Exit(1)
	}
}
