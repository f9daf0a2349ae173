// Command fstr builds, inspects and verifies flashstring images.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/image"
	"github.com/wippyai/flashstring/memory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fstr",
		Short:         "Build and inspect flashstring images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if err := setupLogging(verbose); err != nil {
				return err
			}
			policy, _ := cmd.Flags().GetString("verify")
			if policy == "" {
				return nil
			}
			p, err := flashstring.ParseVerifyPolicy(policy)
			if err != nil {
				return err
			}
			flashstring.SetVerifyPolicy(p)
			return nil
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().String("verify", "", "handle verify policy (degrade, trust, failfast)")

	root.AddCommand(
		newPackCmd(),
		newLsCmd(),
		newCatCmd(),
		newVerifyCmd(),
		newWasmCmd(),
		newBrowseCmd(),
	)
	return root
}

func setupLogging(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	flashstring.SetLogger(log)
	memory.SetLogger(log.Named("memory"))
	image.SetLogger(log.Named("image"))
	return nil
}

// openImage opens a raw image file, or instantiates a wasm module produced by
// "fstr wasm" and reads the image out of its linear memory.
func openImage(ctx context.Context, path string) (*image.Image, func(), error) {
	if !strings.HasSuffix(path, ".wasm") {
		img, err := image.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return img, func() { _ = img.Close() }, nil
	}

	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	rt := wazero.NewRuntime(ctx)
	_, region, err := memory.Instantiate(ctx, rt, bin)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, nil, err
	}
	img, err := image.FromRegion(region)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, nil, err
	}
	return img, func() { _ = rt.Close(ctx) }, nil
}
