package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/twig/pkg/object"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <hash>",
		Short: "Show the type, size or content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, on := range []bool{showType, showSize, pretty} {
				if on {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("cat-file: exactly one of -t, -s or -p is required")
			}

			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			objType, data, err := r.Store.ReadRaw(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(data))
			default:
				return prettyPrint(out, objType, data)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the content size in bytes")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	return cmd
}

func prettyPrint(w io.Writer, objType object.ObjectType, data []byte) error {
	if objType != object.TypeTree {
		_, err := w.Write(data)
		return err
	}
	tree, err := object.UnmarshalTree(data)
	if err != nil {
		return err
	}
	printTreeEntries(w, tree.Entries)
	return nil
}

// printTreeEntries writes one "<mode> <type> <hash>\t<name>" line per entry.
func printTreeEntries(w io.Writer, entries []object.TreeEntry) {
	for _, e := range entries {
		kind := object.TypeBlob
		switch e.Mode {
		case object.ModeDir:
			kind = object.TypeTree
		case object.ModeGitlink:
			kind = object.TypeCommit
		}
		fmt.Fprintf(w, "%06o %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
	}
}
