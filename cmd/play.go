package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/inference-sim/prompt-cache-sim/sim/playback"
	"github.com/inference-sim/prompt-cache-sim/sim/trace"
)

// play runs lanes to completion, or until ctx is cancelled, and summarizes the run.
func play(ctx context.Context, cfg playback.Config, sink playback.Sink, lanes ...playback.Lane) (*trace.TraceSummary, error) {
	rec := trace.NewRecorder(trace.TraceLevelTicks)
	p, err := playback.NewPlayer(cfg, playback.MultiSink{rec, sink}, lanes...)
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}
	p.Start()
	select {
	case <-p.Done():
	case <-ctx.Done():
		logrus.Warnf("Playback interrupted: %v", ctx.Err())
		p.Reset()
	}
	return rec.Summary(), nil
}

// playbackSink picks the per-tick sink for the selected output format.
func playbackSink(w io.Writer) playback.Sink {
	if viper.GetString("format") == formatJSON {
		return newJSONSink(w)
	}
	return &progressSink{w: w}
}

// resolveTick applies the --tick / PCSIM_TICK override to cfg.
func resolveTick(cfg playback.Config) playback.Config {
	if tick := viper.GetDuration("tick"); tick > 0 {
		cfg.TickInterval = tick
	}
	return cfg
}

// interruptContext is cancelled on SIGINT.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
