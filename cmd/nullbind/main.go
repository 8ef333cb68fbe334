// Command nullbind binds JSON or YAML documents against a YAML schema
// declaration and reports how every property was resolved.
package main

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/nullbind/i18n"
)

// config is read from the environment; flags override it per invocation.
type config struct {
	LogLevel      string `env:"NULLBIND_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"NULLBIND_LOG_FORMAT" envDefault:"console"`
	MaxDepth      int    `env:"NULLBIND_MAX_DEPTH" envDefault:"512"`
	MaxBytes      int64  `env:"NULLBIND_MAX_BYTES" envDefault:"0"`
	DuplicateKeys string `env:"NULLBIND_DUPLICATE_KEYS" envDefault:"error"`
	Lang          string `env:"NULLBIND_LANG" envDefault:"en"`
	Addr          string `env:"NULLBIND_ADDR" envDefault:":8080"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load configuration")
	}
	logger := newLogger(cfg)
	i18n.SetLanguage(cfg.Lang)

	root := newRootCmd(cfg, logger)
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("nullbind failed")
		os.Exit(1)
	}
}

func newRootCmd(cfg config, logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "nullbind",
		Short: "Null-aware document binding",
		Long: `Bind JSON or YAML documents against a YAML schema declaration.

Every declared property is absent, null or present in a document; the
property's null policy (skip, fail, set_null, default_empty) decides what an
explicit null does.

Examples:
  nullbind bind --schema bean.yaml doc.json
  nullbind resolve --schema bean.yaml --format yaml doc.yaml
  nullbind jsonschema --schema bean.yaml
  nullbind serve --schema bean.yaml --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBindCmd(cfg, logger), newResolveCmd(cfg, logger), newJSONSchemaCmd(logger), newServeCmd(cfg, logger))
	return root
}
