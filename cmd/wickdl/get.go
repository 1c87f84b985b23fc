package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/SirWaddles/wickdl/downloader"
)

func newGetCmd(configPath *string) *cobra.Command {
	var spoolLimit int

	cmd := &cobra.Command{
		Use:   "get <file> <target>",
		Short: "Download a file's chunks in parallel to a local path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, target := args[0], args[1]

			svc, err := openService(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			var total int64
			for _, f := range svc.ListCandidates(func(n string) bool { return n == name }) {
				for _, part := range f.Parts {
					total += int64(part.Size)
				}
			}
			if total == 0 {
				return fmt.Errorf("file %q not found in manifest", name)
			}

			p := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(40))
			bar := p.AddBar(total,
				mpb.PrependDecorators(decor.Name(name)),
				mpb.AppendDecorators(
					decor.CountersKiloByte("% .1f / % .1f"),
					decor.Percentage(decor.WCSyncSpace),
				),
			)

			opts := downloader.Options{
				SpoolLimit: spoolLimit,
				OnProgress: func(n int64) {
					bar.IncrInt64(n)
				},
			}

			start := time.Now()
			if err := svc.Download(cmd.Context(), name, target, opts); err != nil {
				p.Wait()
				return err
			}
			bar.SetCurrent(total)
			p.Wait()

			fmt.Fprintf(os.Stderr, "downloaded %s in %s\n", name, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&spoolLimit, "parallel", downloader.DefaultSpoolLimit, "number of concurrent chunk downloads")
	return cmd
}
