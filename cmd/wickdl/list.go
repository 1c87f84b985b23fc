package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SirWaddles/wickdl/manifest"
)

func newListCmd(configPath *string) *cobra.Command {
	var prefix string
	var exts []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate files in the build",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			predicate := func(name string) bool { return true }
			if prefix != "" || len(exts) > 0 {
				predicate = manifest.Suffixes(prefix, exts...)
			}

			for _, f := range svc.ListCandidates(predicate) {
				fmt.Println(f.Filename)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "filter by path prefix")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "filter by file extension (repeatable)")
	return cmd
}
