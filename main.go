package main

import (
	"os"

	"github.com/firefly-engineering/conduit-console/cmd"
	"github.com/firefly-engineering/conduit-console/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
