package main

import (
	"fmt"
	"os"

	"github.com/CrisisTextLine/userfetch/cmd/userfetch/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
