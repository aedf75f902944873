package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/scenario"
	"github.com/inference-sim/prompt-cache-sim/sim/throughput"
	"github.com/inference-sim/prompt-cache-sim/sim/ttl"
)

var (
	scenarioFile   string // Path to a scenario YAML file
	scenarioPreset string // Name of a built-in scenario
	scenarioPlay   bool   // Play each section tick by tick
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run, list, and show scenario files",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every section of a scenario file or built-in preset",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := resolveScenario(scenarioFile, scenarioPreset)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		if err := runScenario(cmd.OutOrStdout(), s, scenarioPlay); err != nil {
			logrus.Fatalf("Scenario %q failed: %v", s.Name, err)
		}
	},
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range scenario.PresetNames() {
			s, _ := scenario.Preset(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", name, s.Description)
		}
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <preset>",
	Short: "Print a built-in scenario as YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := scenario.Preset(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		data, err := s.Marshal()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		_, _ = cmd.OutOrStdout().Write(data)
	},
}

// resolveScenario loads a file when given, else the named preset.
func resolveScenario(file, preset string) (*scenario.Scenario, error) {
	if file != "" {
		return scenario.Load(file)
	}
	if preset == "" {
		return nil, errors.New("one of --file or --preset is required")
	}
	return scenario.Preset(preset)
}

func runScenario(w io.Writer, s *scenario.Scenario, playIt bool) error {
	logrus.Infof("Running scenario %q", s.Name)
	if s.TTL != nil {
		run, err := ttl.NewRun(*s.TTL)
		if err != nil {
			return err
		}
		defaults := playback.DefaultConfig()
		defaults.Step = 0.5
		if err := runTTL(w, run, playIt, resolveTick(s.TTLPlayback.PlayerConfig(defaults))); err != nil {
			return err
		}
	}
	if s.Throughput != nil {
		m, err := throughput.NewModel(*s.Throughput)
		if err != nil {
			return err
		}
		defaults := playback.DefaultConfig()
		defaults.TickInterval = defaultThroughputTick
		defaults.Step = 5
		if err := runThroughput(w, m, playIt, resolveTick(s.ThroughputPlayback.PlayerConfig(defaults))); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	scenarioRunCmd.Flags().StringVar(&scenarioFile, "file", "", "Path to a scenario YAML file")
	scenarioRunCmd.Flags().StringVar(&scenarioPreset, "preset", "", "Built-in scenario name (see `scenario list`)")
	scenarioRunCmd.Flags().BoolVar(&scenarioPlay, "play", false, "Play each section tick by tick")

	scenarioCmd.AddCommand(scenarioRunCmd, scenarioListCmd, scenarioShowCmd)
	rootCmd.AddCommand(scenarioCmd)
}
