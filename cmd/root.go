package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/malikkrehic/action/internal/config"
	"github.com/malikkrehic/action/internal/log"
)

// defaultConfigPath is where a commented default config is written when no
// config file exists yet.
const defaultConfigPath = ".action/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "action",
	Short: "Run named, validated actions over HTTP, MCP or the command line",
	Long: `action dispatches named actions. Each action declares a typed payload that is
coerced and validated before the action runs.

Use 'action serve' to expose the actions over HTTP (and optionally MCP),
'action actions:list' to see what is registered and 'action actions:exec' to
run one directly.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .action/config.yaml, then ~/.config/action/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also ACTION_DEBUG)")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite database")

	_ = viper.BindPFlag("storage.db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .action/config.yaml (current directory)
		// 2. ~/.config/action/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "action"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .action/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				viper.SetConfigFile(defaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	loaded, err := decodeConfig(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		loaded = config.Defaults()
	}
	cfg = loaded
}

// decodeConfig unmarshals v onto the defaults and applies ACTION_* overrides.
func decodeConfig(v *viper.Viper) (config.Config, error) {
	c := config.Defaults()
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.ApplyEnv(&c); err != nil {
		return c, err
	}
	return c, nil
}

// configFilePath is the file config:set edits.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

func setupLogging(_ *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !debugFlag && !cfg.Log.Debug {
		return nil
	}
	cleanup, err := log.Init(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	if debugFlag {
		log.SetMinLevel(log.LevelDebug)
	}
	cobra.OnFinalize(cleanup)

	log.Info(log.CatConfig, "action starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
