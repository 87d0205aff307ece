package config

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	Jails  JailsConfig
	Watch  WatchConfig
	Notify NotifyConfig
}

type AppConfig struct {
	Env  string
	Port int
	Host string
}

type JailsConfig struct {
	Dir string // directory of *.yaml jail definitions
}

type WatchConfig struct {
	Paths []string // doublestar globs of log files to follow
}

type NotifyConfig struct {
	EventsPerSec float64
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/failguard")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	// Set defaults
	setDefaults()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetInt("APP_PORT"),
			Host: viper.GetString("APP_HOST"),
		},
		Jails: JailsConfig{
			Dir: viper.GetString("JAILS_DIR"),
		},
		Watch: WatchConfig{
			Paths: viper.GetStringSlice("WATCH_PATHS"),
		},
		Notify: NotifyConfig{
			EventsPerSec: viper.GetFloat64("NOTIFY_EVENTS_PER_SEC"),
		},
	}

	return config, nil
}

func bindEnvVars() {
	// App
	viper.BindEnv("APP_ENV")
	viper.BindEnv("APP_PORT")
	viper.BindEnv("APP_HOST")

	// Jails
	viper.BindEnv("JAILS_DIR")

	// Log sources
	viper.BindEnv("WATCH_PATHS")

	// Notifications
	viper.BindEnv("NOTIFY_EVENTS_PER_SEC")
}

func setDefaults() {
	// App defaults
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_HOST", "0.0.0.0")

	// Jail defaults
	viper.SetDefault("JAILS_DIR", "./jails")

	// Notification defaults
	viper.SetDefault("NOTIFY_EVENTS_PER_SEC", 50)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
