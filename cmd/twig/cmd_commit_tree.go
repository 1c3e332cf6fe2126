package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
)

func newCommitTreeCmd() *cobra.Command {
	var (
		parent  string
		message string
		date    int64
		sign    bool
		signKey string
	)

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p parent] [-m message]",
		Short: "Create a commit object for a tree",
		Long: "Create a commit object for a tree and print its digest. The message is\n" +
			"read from stdin when -m is not given. No ref is updated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := object.ParseHash(args[0])
			if err != nil {
				return fmt.Errorf("tree: %w", err)
			}
			var parentHash *object.Hash
			if parent != "" {
				p, err := object.ParseHash(parent)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				parentHash = &p
			}

			if !cmd.Flags().Changed("message") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				message = string(data)
			}

			when := time.Now()
			if cmd.Flags().Changed("date") {
				when = time.Unix(date, 0)
			}

			var signer repo.CommitSigner
			if sign || signKey != "" {
				s, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				signer = s
				loggerFor(cmd).Debug("signing commit", "key", keyPath)
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.CommitTree(tree, parentHash, message, when, signer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit digest")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().Int64Var(&date, "date", 0, "commit time as unix seconds (default: now)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign with the default SSH key (~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "sign with the SSH private key at this path")
	return cmd
}
