package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SirWaddles/wickdl/verify"
)

func newVerifyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file> <local-path>",
		Short: "Check a local file's SHA-1 against the manifest's recorded hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

			svc, err := openService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			matches := svc.ListCandidates(func(n string) bool { return n == name })
			if len(matches) == 0 {
				return fmt.Errorf("file %q not found in manifest", name)
			}

			ok, err := verify.File(path, matches[0].FileHash)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: hash mismatch", path)
			}

			fmt.Printf("%s: ok\n", path)
			return nil
		},
	}

	return cmd
}
