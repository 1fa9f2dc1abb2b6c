package main

import (
	"fmt"
	"os"

	"github.com/roach88/lifesync/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lifesync:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
