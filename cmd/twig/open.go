package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/repo"
)

// openRepo opens the repository containing the working directory.
// Relative path arguments resolve against the working directory.
func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	return repo.Open(fsys.NewOS(), wd, repo.WithLogger(loggerFor(cmd)), repo.WithWorkDir(wd))
}
