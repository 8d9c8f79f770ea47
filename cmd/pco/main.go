package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fivetwenty-io/pco-client/cmd/pco/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	rootCmd := commands.NewRootCommand(version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
