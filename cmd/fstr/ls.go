package main

import (
	"fmt"

	"github.com/multiformats/go-multihash"
	"github.com/spf13/cobra"

	"github.com/wippyai/flashstring/image"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls image",
		Short: "List image entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, closeImg, err := openImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeImg()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Image: %s\n", args[0])
			fmt.Fprintf(w, "Base: 0x%08x  Size: %d  Entries: %d\n\n", img.Base(), img.Size(), img.Len())

			width := 4
			for _, e := range img.Entries() {
				width = max(width, len(e.Name))
			}
			fmt.Fprintf(w, "%-*s  %-10s  %8s  %s\n", width, "NAME", "ADDR", "LEN", "DIGEST")
			for _, e := range img.Entries() {
				fmt.Fprintf(w, "%-*s  0x%08x  %8d  %s\n", width, e.Name, e.Addr, e.Handle.Len(), describe(img, e))
			}
			return nil
		},
	}
}

func describe(img *image.Image, e image.Entry) string {
	if e.Alias() {
		for _, t := range img.Entries() {
			if !t.Alias() && t.Handle.Data() == e.Handle.Data() {
				return "-> " + t.Name
			}
		}
		return "-> ?"
	}
	if e.Digest == nil {
		return "-"
	}
	mh, err := multihash.Cast(e.Digest)
	if err != nil {
		return "invalid"
	}
	return mh.B58String()
}
