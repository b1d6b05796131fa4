package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// videoDriver is the SDL video driver used when none is configured, so
// that emulators need no display
const videoDriver = "dummy"

func main() {
	rootCmd := &cobra.Command{
		Use:   "atarirl",
		Short: "Train DQN agents online on pixel environments",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return headless()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(TrainCommand())
	rootCmd.AddCommand(PlotCommand())
	rootCmd.AddCommand(ExportCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// headless loads .env files and then sets the SDL video driver, unless
// one is already set. It must be called before any environment is
// created.
func headless() error {
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if _, ok := os.LookupEnv("SDL_VIDEODRIVER"); ok {
		return nil
	}
	return os.Setenv("SDL_VIDEODRIVER", videoDriver)
}
