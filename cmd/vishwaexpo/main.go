package main

import (
	"fmt"
	"os"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/cmd/vishwaexpo/commands"
)

var version = "v0.1.0"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
