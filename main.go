package main

import (
	"os"

	"github.com/mnemon/mnemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
