package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/atarirl/agent"
	"github.com/samuelfneumann/atarirl/agent/dqn"
	env "github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/environment/wrappers"
	"github.com/samuelfneumann/atarirl/experiment/tracker"
)

// Train trains a DQN agent on e as configured by c, drawing all
// randomness from rng. Progress lines are written to out and
// diagnostics to logger. Train takes ownership of e and closes it
// before returning. The log directory of the run is returned.
func (c Config) Train(e env.Environment, rng *rand.Rand, out io.Writer,
	logger *log.Logger) (dir string, err error) {
	// The environment is closed by the experiment once it runs
	running := false
	defer func() {
		if !running {
			e.Close()
		}
	}()

	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("train: %w", err)
	}

	if c.EpisodeSteps > 0 {
		e = wrappers.NewTimeLimit(e, c.EpisodeSteps)
	}

	config, err := dqn.DefaultConfig(wrappers.AtariFrameSpec(), e.ActionSpec())
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}
	if c.AgentConfig != "" {
		if config, err = LoadAgentConfig(c.AgentConfig, config); err != nil {
			return "", fmt.Errorf("train: %w", err)
		}
	}

	d, err := dqn.New(config, rng)
	if err != nil {
		return "", fmt.Errorf("train: could not create agent: %w", err)
	}
	defer func() {
		if closeErr := closeAgent(d); closeErr != nil && err == nil {
			err = fmt.Errorf("train: %w", closeErr)
		}
	}()

	runID := uuid.New().String()
	dir, err = c.MakeLogDir(time.Now())
	if err != nil {
		return "", fmt.Errorf("train: %w", err)
	}
	writer, err := tracker.OpenScalarWriter(dir, runID)
	if err != nil {
		return dir, fmt.Errorf("train: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("train: %w", closeErr)
		}
	}()

	logger.Printf("run %v: training on %v for %v epochs, logging to %v",
		runID, c.EnvID, c.Epochs, dir)

	reporter := tracker.NewReporter(c.EnvID, writer, out)
	exp := NewOnline(e, d, reporter, c.Epochs, wrappers.Atari)
	if c.Verbose {
		exp.WithLogger(logger)
	}

	running = true
	if err := exp.Run(); err != nil {
		return dir, err
	}

	logger.Printf("run %v: finished after %v episodes (%v steps)", runID,
		exp.Episodes(), exp.Steps())
	return dir, nil
}

// closeAgent closes a if it holds resources
func closeAgent(a agent.Agent) error {
	if closer, ok := a.(agent.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closeAgent: %w", err)
		}
	}
	return nil
}

// LoadAgentConfig overlays the JSON agent configuration in the file
// path onto config
func LoadAgentConfig(path string, config dqn.Config) (dqn.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dqn.Config{}, fmt.Errorf("loadAgentConfig: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return dqn.Config{}, fmt.Errorf("loadAgentConfig: could not decode "+
			"%v: %w", path, err)
	}
	return config, nil
}
