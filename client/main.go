package main

import (
	"os"

	"github.com/avrix/launcher/client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
