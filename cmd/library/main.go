// @title Neighborhood Library API
// @version 1.0
// @BasePath /api/v1
package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/app"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdLog.Fatal("load envs from .env ", zap.Error(err))
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	loadConfig := func() config.Config {
		ops := []config.Option{config.WithWriteTimeout(time.Minute)}
		if debug {
			ops = append(ops, config.WithLogLevel(zapcore.DebugLevel))
		}
		return config.NewConfig(ops...)
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the library HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), loadConfig())
		},
	}

	root := &cobra.Command{
		Use:          "library",
		Short:        "Neighborhood library service",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging unless LOG_LEVEL is set")
	root.AddCommand(serve, newMigrateCmd(loadConfig))
	return root
}
