package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/config"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/database"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "50051", cfg.Server.Port)
	require.EqualValues(t, 10, cfg.Server.MaxWorkers)
	require.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	require.False(t, cfg.Kafka.Enabled())
	require.Equal(t, zapcore.InfoLevel, cfg.Log.LogLevel)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LIBRARY_HTTP_PORT", "8080")
	t.Setenv("HTTP_MAX_WORKERS", "4")
	t.Setenv("DB_DRIVER", database.DriverPostgres)
	t.Setenv("KAFKA_ADDRS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithMaxWorkers(32),
		config.WithWriteTimeout(time.Minute),
	)
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.EqualValues(t, 4, cfg.Server.MaxWorkers, "env wins over option")
	require.Equal(t, zapcore.WarnLevel, cfg.Log.LogLevel, "env wins over option")
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	require.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Addrs)
	require.True(t, cfg.Kafka.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HTTP_MAX_WORKERS", "many")
	_, err := config.Load()
	require.Error(t, err)
}
