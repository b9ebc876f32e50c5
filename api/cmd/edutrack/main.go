package main

import (
	"os"

	"github.com/edutrack/edutrack/api/cmd/edutrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
