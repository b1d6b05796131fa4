// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Experiment runs an agent in an environment until some ending
// condition is reached
type Experiment interface {
	Run() error
}

var _ Experiment = &Online{}

// TimestampFormat is the layout of the timestamp naming each log
// directory, i.e. YYYYMMDD_HHMMSS
const TimestampFormat = "20060102_150405"

// Config represents a configuration of an experiment.
type Config struct {
	EnvID   string `json:"env_id"`
	Epochs  int    `json:"epochs"` // Number of epochs to train for
	Seed    uint64 `json:"seed"`
	LogRoot string `json:"log_root"`

	// JSON file overlaid onto the default agent configuration, if set
	AgentConfig string `json:"agent_config"`

	// Maximum number of steps per episode, 0 for no limit
	EpisodeSteps int `json:"episode_steps"`

	Verbose bool `json:"verbose"` // Log a line per finished episode
}

// DefaultConfig returns the default experiment configuration
func DefaultConfig() Config {
	return Config{
		EnvID:   "Pong-v4",
		Epochs:  300,
		Seed:    20,
		LogRoot: "./logs",
	}
}

// Validate returns an error describing whether or not the
// configuration is valid or not.
func (c Config) Validate() error {
	if c.EnvID == "" {
		return fmt.Errorf("validate: no environment specified")
	}
	if c.Epochs < 0 {
		return fmt.Errorf("validate: epochs must be >= 0, have %v", c.Epochs)
	}
	if c.EpisodeSteps < 0 {
		return fmt.Errorf("validate: episode steps must be >= 0, have %v",
			c.EpisodeSteps)
	}
	if c.LogRoot == "" {
		return fmt.Errorf("validate: no log root specified")
	}
	return nil
}

// LogDir returns the log directory of a run on the environment envID
// started at now: <root>/dqn/<envID>/<YYYYMMDD_HHMMSS>/
func LogDir(root, envID string, now time.Time) string {
	dir := filepath.Join(root, "dqn", filepath.FromSlash(envID),
		now.Format(TimestampFormat))
	return dir + string(filepath.Separator)
}

// MakeLogDir creates the log directory of a run started at now and
// returns its path
func (c Config) MakeLogDir(now time.Time) (string, error) {
	dir := LogDir(c.LogRoot, c.EnvID, now)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("makeLogDir: could not create log directory "+
			"%v: %w", dir, err)
	}
	return dir, nil
}
