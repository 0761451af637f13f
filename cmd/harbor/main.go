package main

import (
	"fmt"
	"os"

	"github.com/harborwallet/harbor/internal/cli"
	"github.com/harborwallet/harbor/internal/fedclient"
)

func main() {
	cmd := cli.NewRootCommand(runtimeBinding())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

// runtimeBinding returns the federated client runtime. The protocol
// implementation is supplied by the embedding application; this build
// exposes the read-only commands only.
func runtimeBinding() fedclient.Factory {
	return nil
}
