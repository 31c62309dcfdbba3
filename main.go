package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"nextcloud-ntfy/bridge"
	"nextcloud-ntfy/config"
	"nextcloud-ntfy/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags := pflag.NewFlagSet("nextcloud-ntfy", pflag.ExitOnError)
	configFile := flags.StringP("config-file", "c", config.DefaultConfigFile, "Path to the configuration file")
	flags.String("log_level", "INFO", "Set the logging level: DEBUG, INFO, WARNING, ERROR or CRITICAL")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlag("log_level", flags.Lookup("log_level")); err != nil {
		log.Fatalf("can't bind log_level flag: %v", err)
	}

	cfg := config.MustLoadConfig(v, *configFile)
	setupLogger(cfg.LogLevel)

	b := bridge.New(utils.NewNextcloudClient(cfg), utils.NewNtfyClient(cfg), bridge.OptionsFromConfig(cfg))
	if err := b.Run(ctx); err != nil {
		slog.Error("stopping.", slog.String("err", err.Error()))
		stop()
		os.Exit(config.ExitPushRejected)
	}

	slog.Info("done")
}

func setupLogger(level string) *slog.Logger {
	slogLevel, err := utils.ParseLevel(level)
	if err != nil {
		log.Printf("encountered log level: '%s'. Falling back to INFO", level)
	}

	replaceAttrs := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.SourceKey:
			source := a.Value.Any().(*slog.Source)
			source.File = filepath.Base(source.File)
		case slog.LevelKey:
			if l, ok := a.Value.Any().(slog.Level); ok && l == utils.LevelCritical {
				a.Value = slog.StringValue(utils.LevelName(l))
			}
		}
		return a
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		AddSource:   true,
		Level:       slogLevel,
		ReplaceAttr: replaceAttrs,
		TimeFormat:  "02-01-2006 15:04:05",
	}))

	slog.SetDefault(logger)
	logger.Debug("debug messages are enabled")

	return logger
}
