package main

import (
	"os"

	"tracker/internal/cli"
	"tracker/internal/console"
)

func main() {
	cli.LoadEnvFile()

	root := newRootCmd(newApp(os.Stdout))
	if err := root.Execute(); err != nil {
		console.New(os.Stderr).LogError("%v", err)
		os.Exit(1)
	}
}
