package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/flashstring/errors"
	"github.com/wippyai/flashstring/image"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack -o out.img name=path...",
		Short: "Pack files into an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			baseStr, _ := cmd.Flags().GetString("base")
			noDigest, _ := cmd.Flags().GetBool("no-digest")
			strs, _ := cmd.Flags().GetStringArray("string")
			aliases, _ := cmd.Flags().GetStringArray("alias")

			base, err := parseBase(baseStr)
			if err != nil {
				return err
			}
			b := image.NewBuilder(image.WithBase(base), image.WithDigests(!noDigest))
			for _, arg := range args {
				name, path, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				if err := b.AddFile(name, path); err != nil {
					return err
				}
			}
			for _, arg := range strs {
				name, value, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				if err := b.AddString(name, value); err != nil {
					return err
				}
			}
			for _, arg := range aliases {
				name, target, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				if err := b.AddAlias(name, target); err != nil {
					return err
				}
			}

			img, err := b.Build()
			if err != nil {
				return err
			}
			if err := img.WriteFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d bytes at 0x%08x\n",
				out, img.Len(), img.Size(), img.Base())
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "image file to write")
	cmd.Flags().String("base", fmt.Sprintf("0x%08x", image.DefaultBase), "address the image is placed at")
	cmd.Flags().Bool("no-digest", false, "do not record entry digests")
	cmd.Flags().StringArray("string", nil, "add a literal entry, name=value")
	cmd.Flags().StringArray("alias", nil, "add an alias entry, name=target")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func parseAssignment(arg string) (string, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", "", errors.InvalidInput(errors.PhaseParse,
			fmt.Sprintf("expected name=value, got %q", arg))
	}
	return name, value, nil
}

func parseBase(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.ParseFailed("base address "+s, err)
	}
	return uint32(v), nil
}
