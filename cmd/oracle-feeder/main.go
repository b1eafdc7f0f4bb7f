package main

import (
	"os"

	"github.com/paw-chain/paw-oracle/cmd/oracle-feeder/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
