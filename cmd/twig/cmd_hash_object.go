package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/twig/pkg/object"
)

func newHashObjectCmd() *cobra.Command {
	var write bool
	var typ string

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t type] <file>",
		Short: "Compute an object digest and optionally store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := object.ParseObjectType(typ)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			// Trees and commits must be canonical before they get a digest.
			if _, err := object.DecodeCanonical(objType, data); err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			h := object.HashBytes(data)
			if write {
				r, err := openRepo(cmd)
				if err != nil {
					return err
				}
				if h, err = r.Store.WriteRaw(objType, data); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	cmd.Flags().StringVarP(&typ, "type", "t", string(object.TypeBlob), "object type (blob, tree, commit)")
	return cmd
}
