package main

import (
	"fmt"
	"os"

	"pincrawl/cmd/pincrawl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
