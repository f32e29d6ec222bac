package main

import (
	"os"

	"github.com/ironbell/vaultiam/cmd/vaultiam/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
