package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/flashstring/errors"
	"github.com/wippyai/flashstring/image"
)

func newWasmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wasm image -o out.wasm",
		Short: "Wrap an image in a wasm module",
		Long: "Wrap an image in a wasm module whose linear memory holds the image at its\n" +
			"base address. The module's minimum memory covers everything below the base,\n" +
			"so an image packed at the default base needs about 1 GiB of linear memory.\n" +
			"Pack with a small --base (for example 0x1000) for images meant for wasm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")

			img, err := image.Open(args[0])
			if err != nil {
				return err
			}
			defer img.Close()

			bin, err := image.EncodeWasm(img)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, bin, 0o644); err != nil {
				return errors.IO(errors.PhaseBuild, "write "+out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, image at 0x%08x\n", out, len(bin), img.Base())
			if hint := baseHint(img.Base()); hint != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), hint)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "wasm file to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// largeBase is the base above which the module's linear memory is mostly
// padding below the image.
const largeBase = 16 << 20

// baseHint suggests repacking when base forces a large linear memory.
func baseHint(base uint32) string {
	if base < largeBase {
		return ""
	}
	return fmt.Sprintf("note: image base 0x%08x needs %d MiB of linear memory; repack with --base 0x1000 to shrink it",
		base, (uint64(base)+1<<20-1)>>20)
}
