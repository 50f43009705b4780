package main

import (
	"os"

	"github.com/esdrain/esdrain/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
