package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify image",
		Short: "Check every entry against its recorded digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, closeImg, err := openImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeImg()

			if err := img.Verify(cmd.Context()); err != nil {
				return err
			}
			checked := 0
			for _, e := range img.Entries() {
				if e.Digest != nil {
					checked++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d of %d entries checked\n", args[0], checked, img.Len())
			return nil
		},
	}
}
