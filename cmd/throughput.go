package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/scenario"
	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
)

var (
	// CLI flags for the throughput command
	tpConfig throughput.Config // Cold vs warm comparison parameters
	tpPlay   bool              // Play both lanes tick by tick
	tpStep   float64           // Simulated milliseconds advanced per tick
)

// throughputCmd compares cold and warm prefill of the same prompt
var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Compare cache-miss and cache-hit prefill time and cost",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := throughput.NewModel(tpConfig)
		if err != nil {
			logrus.Fatalf("Refusing to start run: %v", err)
		}
		pcfg := playback.DefaultConfig()
		pcfg.TickInterval = defaultThroughputTick
		pcfg.Step = tpStep
		if err := runThroughput(cmd.OutOrStdout(), m, tpPlay, resolveTick(pcfg)); err != nil {
			logrus.Fatalf("Throughput simulation failed: %v", err)
		}
	},
}

const defaultThroughputTick = 10 * time.Millisecond

// throughputReport is the JSON form of a throughput comparison.
type throughputReport struct {
	Config  throughput.Config  `json:"config"`
	Summary throughput.Summary `json:"summary"`
}

func runThroughput(w io.Writer, m *throughput.Model, playIt bool, cfg playback.Config) error {
	if playIt {
		ctx, cancel := interruptContext()
		defer cancel()
		summary, err := play(ctx, cfg, playbackSink(w), playback.ThroughputLanes(m)...)
		if err != nil {
			return err
		}
		if viper.GetString("format") == formatTable {
			fmt.Fprintln(w, renderPlayback(summary))
		}
	}
	if viper.GetString("format") == formatJSON {
		return writeJSON(w, throughputReport{Config: m.Config(), Summary: m.Summary()})
	}
	fmt.Fprintln(w, renderThroughput(m.Summary()))
	return nil
}

func init() {
	d := scenario.PrefillConfig()
	throughputCmd.Flags().Float64Var(&tpConfig.TotalUnits, "total", d.TotalUnits, "Total prompt tokens")
	throughputCmd.Flags().Float64Var(&tpConfig.CachedUnits, "cached", d.CachedUnits, "Tokens served from cache on the warm path")
	throughputCmd.Flags().Float64Var(&tpConfig.ColdRate, "cold-rate", d.ColdRate, "Cold path tokens per simulated ms")
	throughputCmd.Flags().Float64Var(&tpConfig.WarmCachedRate, "warm-cached-rate", d.WarmCachedRate, "Warm path cached-segment tokens per simulated ms")
	throughputCmd.Flags().Float64Var(&tpConfig.WarmNewRate, "warm-new-rate", d.WarmNewRate, "Warm path new-segment tokens per simulated ms")
	throughputCmd.Flags().Float64Var(&tpConfig.CostPerCachedUnit, "cached-cost", d.CostPerCachedUnit, "Cost per cached token")
	throughputCmd.Flags().Float64Var(&tpConfig.CostPerUncachedUnit, "uncached-cost", d.CostPerUncachedUnit, "Cost per uncached token")
	throughputCmd.Flags().BoolVar(&tpPlay, "play", false, "Play both lanes tick by tick")
	throughputCmd.Flags().Float64Var(&tpStep, "step", 5, "Simulated milliseconds advanced per tick")

	rootCmd.AddCommand(throughputCmd)
}
