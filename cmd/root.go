package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/config"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
)

const Version = "1.0.0"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           "habitquest",
	Short:         "HabitQuest API server and maintenance commands",
	Long:          "HabitQuest is a gamified habit and task tracker. Tasks, habits and mini-games earn XP, streaks and achievements.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env file(s) to load before reading the environment (default .env)")
	rootCmd.PersistentFlags().String("storage-driver", "", "Storage backend (postgres|mongo|memory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json|text)")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}

// flagKeys maps command line flags to the viper keys they override.
var flagKeys = map[string]string{
	"storage-driver": "storage_driver",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"port":           "port",
}

// loadConfig reads the environment, lets explicitly set flags win and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v := config.NewViper(envFiles...)
	if err := bindFlags(cmd, v); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	return cfg, log, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}
