// Command simulate runs the media-ecosystem agent simulation: load a
// YAML config, build a Simulation, advance it tick by tick, recording a
// snapshot every step when DEBUG is set (or when the control channel
// needs one to publish), optionally pausing for control-channel commands
// before each run segment.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/niceyeti/mediaworld/internal/config"
	"github.com/niceyeti/mediaworld/internal/control"
	"github.com/niceyeti/mediaworld/internal/logging"
	"github.com/niceyeti/mediaworld/internal/recorder"
	"github.com/niceyeti/mediaworld/internal/sim"

	"math/rand"

	"github.com/rs/zerolog"
)

var configPath *string

func init() {
	configPath = flag.String("config", "config.yaml", "path to the run's YAML config file")
	flag.Parse()
}

func runApp(logger zerolog.Logger) error {
	params, meta, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	seed := config.SeedFromEnvOrTime(meta)

	s := sim.New(params, seed)
	rec := recorder.New(s, rand.New(rand.NewSource(seed)), seed, meta.Steps)

	steps := meta.Steps

	var adapter control.Adapter
	if meta.Command {
		dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		a, err := control.Dial(dialCtx, envOr("NATS_URL", "nats://127.0.0.1:4222"))
		if err != nil {
			return err
		}
		adapter = a
		defer adapter.Close()

		if err := adapter.SetStatus(dialCtx, control.StatusLoading); err != nil {
			return err
		}
		if err := adapter.SetStatus(dialCtx, control.StatusReady); err != nil {
			return err
		}

		// WaitForCommand blocks at operator pace, not provisioning pace:
		// it must not inherit dialCtx's 10-second connection-setup
		// deadline, or a run with no operator watching yet would abort
		// instead of waiting.
		cmd, policies, err := adapter.WaitForCommand(context.Background())
		if err != nil {
			return err
		}
		for _, p := range policies {
			p.Apply(s)
		}
		if cmd.Reset != nil {
			s = sim.New(cmd.Reset.Config, seed)
		}
		if cmd.Run != nil {
			steps = cmd.Run.N
		}

		if err := adapter.SetStatus(context.Background(), control.StatusRunning); err != nil {
			return err
		}
	}

	for i := 0; i < steps; i++ {
		s.Tick()
		if meta.Debug || adapter != nil {
			rec.Record(s)
		}

		if meta.Debug {
			logger.Debug().Int("step", s.Step).Msg("tick complete")
		}

		if adapter != nil {
			if snap, ok := rec.Snapshot(); ok {
				if err := adapter.PublishSnapshot(context.Background(), s.Step, snap); err != nil {
					logger.Warn().Err(err).Msg("publish snapshot failed")
				}
			}
		}
	}

	if !meta.Debug {
		return nil
	}
	return rec.Save("runs", *configPath)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.New()
	if err := runApp(logger); err != nil {
		logger.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}
