package main

import (
	"os"

	"replconsole/internal/logger"
)

var log = logger.Named("cli")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
