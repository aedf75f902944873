package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

var (
	// CLI flags for the ttl command
	ttlWindow   float64   // TTL window W in simulated minutes
	ttlRequests []float64 // Sorted request times
	ttlTimeline float64   // Rendered timeline length
	ttlPlay     bool      // Play the timeline tick by tick
	ttlStep     float64   // Simulated minutes advanced per tick
)

// ttlCmd classifies requests under a sliding-expiration TTL
var ttlCmd = &cobra.Command{
	Use:   "ttl",
	Short: "Classify requests against a sliding-expiration cache",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := ttl.Config{TTL: ttlWindow, Requests: ttlRequests, Timeline: ttlTimeline}
		run, err := ttl.NewRun(cfg)
		if err != nil {
			logrus.Fatalf("Refusing to start run: %v", err)
		}
		pcfg := playback.DefaultConfig()
		pcfg.Step = ttlStep
		if err := runTTL(cmd.OutOrStdout(), run, ttlPlay, resolveTick(pcfg)); err != nil {
			logrus.Fatalf("TTL simulation failed: %v", err)
		}
	},
}

// ttlReport is the JSON form of a TTL run.
type ttlReport struct {
	Config    ttl.Config          `json:"config"`
	Events    []ttl.CacheEvent    `json:"events"`
	Intervals []ttl.AliveInterval `json:"intervals"`
	Summary   ttl.Summary         `json:"summary"`
}

func runTTL(w io.Writer, run *ttl.Run, playIt bool, cfg playback.Config) error {
	if playIt {
		ctx, cancel := interruptContext()
		defer cancel()
		summary, err := play(ctx, cfg, playbackSink(w), playback.TimelineLane(run))
		if err != nil {
			return err
		}
		if viper.GetString("format") == formatTable {
			fmt.Fprintln(w, renderPlayback(summary))
		}
	}
	if viper.GetString("format") == formatJSON {
		return writeJSON(w, ttlReport{
			Config:    run.Config,
			Events:    run.Events,
			Intervals: run.ClippedIntervals(),
			Summary:   run.Summary(),
		})
	}
	fmt.Fprintln(w, renderEvents(run))
	fmt.Fprintln(w, renderIntervals(run))
	return nil
}

func init() {
	ttlCmd.Flags().Float64Var(&ttlWindow, "ttl", 5, "TTL window in simulated minutes")
	ttlCmd.Flags().Float64SliceVar(&ttlRequests, "requests", []float64{0, 1, 2, 3, 4, 8, 9, 14}, "Comma-separated sorted request times")
	ttlCmd.Flags().Float64Var(&ttlTimeline, "timeline", 0, "Timeline length (0 = last request + ttl)")
	ttlCmd.Flags().BoolVar(&ttlPlay, "play", false, "Play the timeline tick by tick")
	ttlCmd.Flags().Float64Var(&ttlStep, "step", 0.5, "Simulated minutes advanced per tick")

	rootCmd.AddCommand(ttlCmd)
}
