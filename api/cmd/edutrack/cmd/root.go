package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/common/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "edutrack",
	Short: "EduTrack API server",
	Long: `edutrack runs the EduTrack backend API and its maintenance tasks.

Configuration is read from defaults, an optional YAML file and
EDUTRACK_ environment variables (for example EDUTRACK_AUTH_JWT_SECRET).`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/edutrack/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("edutrack-api"))
}
