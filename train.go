package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/atarirl/environment"
	"github.com/samuelfneumann/atarirl/environment/catch"
	"github.com/samuelfneumann/atarirl/environment/gym"
	"github.com/samuelfneumann/atarirl/experiment"
)

// TrainCommand returns the command which trains a DQN agent
func TrainCommand() *cobra.Command {
	config := experiment.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DQN agent online, reporting the average return every epoch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return train(config)
		},
	}
	cmd.Flags().StringVar(&config.EnvID, "env", config.EnvID,
		"Environment to train on, an Atari Gym id or "+catch.Name)
	cmd.Flags().IntVar(&config.Epochs, "epochs", config.Epochs,
		"Number of epochs to train for")
	cmd.Flags().Uint64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().StringVar(&config.LogRoot, "logdir", config.LogRoot,
		"Root directory of run logs")
	cmd.Flags().StringVar(&config.AgentConfig, "config", "",
		"JSON file overriding the default agent configuration")
	cmd.Flags().IntVar(&config.EpisodeSteps, "max-episode-steps", 0,
		"Maximum number of steps per episode, 0 for no limit")
	cmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false,
		"Log a line per finished episode")
	return cmd
}

func train(c experiment.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	// All randomness in the run is drawn from rng
	rng := rand.New(rand.NewSource(c.Seed))

	if c.EnvID != catch.Name {
		defer gym.Finalize()
	}
	e, err := newEnvironment(c.EnvID, c.Seed, rng)
	if err != nil {
		return err
	}

	_, err = c.Train(e, rng, os.Stdout, logger)
	return err
}

// newEnvironment creates the environment envID
func newEnvironment(envID string, seed uint64,
	rng *rand.Rand) (environment.Environment, error) {
	if envID == catch.Name {
		c, err := catch.New(rng)
		if err != nil {
			return nil, fmt.Errorf("newEnvironment: %w", err)
		}
		return c, nil
	}

	g, err := gym.New(envID, nil, seed)
	if err != nil {
		return nil, fmt.Errorf("newEnvironment: %w", err)
	}
	return g, nil
}
