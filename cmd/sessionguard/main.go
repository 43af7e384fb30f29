package main

import (
	"os"

	"github.com/sessionguard/sessionguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
