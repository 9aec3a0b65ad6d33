package main

import (
	"os"

	"github.com/manvalan/fdc-railway-engine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
