package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/twig/pkg/object"
)

func newVerifyCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <commit>",
		Short: "Check the SSH signature of a commit object",
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
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			if c.Signature == "" {
				return fmt.Errorf("verify-commit %s: commit is not signed", h)
			}
			pub, err := verifySSHCommitSignature(c.Signature, object.CommitSigningPayload(c))
			if err != nil {
				return fmt.Errorf("verify-commit %s: %w", h, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "good signature from %s %s\n", pub.Type(), ssh.FingerprintSHA256(pub))
			return nil
		},
	}
}
