package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files in the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			return r.Add(args)
		},
	}
}

func newUpdateIndexCmd() *cobra.Command {
	var add, remove bool

	cmd := &cobra.Command{
		Use:   "update-index (--add | --force-remove) <paths...>",
		Short: "Add paths to or remove paths from the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if add == remove {
				return fmt.Errorf("update-index: exactly one of --add or --force-remove is required")
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if remove {
				return r.Remove(args)
			}
			return r.Add(args)
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "stage the given paths")
	cmd.Flags().BoolVar(&remove, "force-remove", false, "remove the given paths from the index")
	return cmd
}
