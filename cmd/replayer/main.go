// Command replayer drives a captured Vulkan wire stream against the
// real driver. It is the single-binary counterpart to
// original_source/replayer.cpp's main(), ported from "mmap the trace,
// walk it directly" to this module's Decoder/Replayer split.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vkcapture/gapid2/internal/basecaller"
	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/replay"
	"github.com/vkcapture/gapid2/internal/wire"
)

var log = logging.For("replayer")

func main() {
	cmd := &cobra.Command{
		Use:   "replayer <trace-file>",
		Short: "Replay a gapid2 capture against the real Vulkan driver",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replayer: open %s: %w", path, err)
	}
	defer f.Close()

	stats := &wire.Stats{}
	dec := wire.NewDecoder(f, stats)

	r := replay.New(context.Background(), basecaller.New())
	if err := r.Run(dec); err != nil {
		return fmt.Errorf("replayer: %w", err)
	}

	log.Info(stats.String())
	fmt.Println(stats.String())
	return nil
}
