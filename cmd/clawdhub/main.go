package main

import (
	"fmt"
	"os"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cmdroot"
)

func main() {
	if err := cmdroot.NewRootCommand().Execute(); err != nil {
		// cobra's SilenceErrors is set, so we print it ourselves
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
