package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"consensus-bridge/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	envFile   string
	flagToken string
	flagCook  string
	appCfg    config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "consensus-bridge",
	Short:        "Consensus Bridge CLI",
	Long:         "Act on a community forum service: merge replies into topic wikis, review merge jobs, vote and publish.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "access token (overrides the stored login)")
	rootCmd.PersistentFlags().StringVar(&flagCook, "cookie", "", "raw Cookie header forwarded to the forum service")
}

func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "error loading %s: %v\n", envFile, err)
		}
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	appCfg = cfg
	setupLogger(appCfg.App.LogLevel)
	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("using config file", "path", used)
	}
}

// configDefaults registers every config key. AutomaticEnv only reaches
// Unmarshal for keys viper already knows about.
var configDefaults = map[string]any{
	"app.log_level":         "info",
	"app.env":               "development",
	"api.base_url":          "http://localhost:9080",
	"api.timeout":           "8s",
	"api.dev_fallback":      true,
	"api.dev_probe":         false,
	"api.probe_bases":       []string{},
	"auth.store":            "file",
	"auth.token_file":       "",
	"auth.redis_key":        "consensus:token:default",
	"auth.token_ttl":        "720h",
	"redis.addr":            "127.0.0.1:6379",
	"redis.username":        "",
	"redis.password":        "",
	"redis.db":              0,
	"openai.api_key":        "",
	"openai.model":          "",
	"openai.base_url":       "",
	"openai.language":       "",
	"gateway.addr":          ":8088",
	"gateway.allow_origins": []string{},
	"watcher.topics":        []string{},
	"watcher.interval":      "5m",
	"watcher.pending_ttl":   "168h",
}

// loadConfig reads the config file (if any) and CONSENSUS_* environment
// overrides into a Config. List values from the environment are comma separated.
func loadConfig(v *viper.Viper) (config.Config, error) {
	v.SetEnvPrefix("CONSENSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, def := range configDefaults {
		v.SetDefault(k, def)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/consensus-bridge")
		v.AddConfigPath("configs")
	}

	var cfg config.Config
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return cfg, fmt.Errorf("error reading config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.FillDefaults()
	return cfg, nil
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
