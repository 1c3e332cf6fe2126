package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm --cached <paths...>",
		Short: "Remove paths from the index, keeping files on disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cached {
				return fmt.Errorf("rm: only --cached is supported; the working tree is never modified")
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			return r.Remove(args)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "remove from index only, keep files on disk")
	return cmd
}
