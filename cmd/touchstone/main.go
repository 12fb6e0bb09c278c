package main

import (
	"os"

	"github.com/touchstone-evals/touchstone/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
