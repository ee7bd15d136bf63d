package main

import (
	"os"

	"github.com/radpro/doselog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
