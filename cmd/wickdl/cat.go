package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newCatCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Stream a file's contents to stdout via random-access reads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			svc, err := openService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			r, err := svc.Open(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer r.Close()

			_, err = io.Copy(os.Stdout, r)
			return err
		},
	}

	return cmd
}
