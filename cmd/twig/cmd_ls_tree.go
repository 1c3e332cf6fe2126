package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/twig/pkg/object"
)

func newLsTreeCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] <tree>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !recursive {
				tree, err := r.Store.ReadTree(h)
				if err != nil {
					return err
				}
				printTreeEntries(out, tree.Entries)
				return nil
			}

			files, err := r.FlattenTree(h)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(out, "%06o %s %s\t%s\n", f.Mode, object.TypeBlob, f.Hash, f.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}
