package main

import (
	"os"

	"github.com/routeup/routeup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
