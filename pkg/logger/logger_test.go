package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Sink(t *testing.T) {
	var buf bytes.Buffer
	prev := errOutput
	errOutput = zapcore.AddSync(&buf)
	t.Cleanup(func() { errOutput = prev })

	t.Run("unwritable sink reported", func(t *testing.T) {
		buf.Reset()
		sink := filepath.Join(t.TempDir(), "missing", "library.log")
		log := NewLogger(Log{LogLevel: zapcore.InfoLevel, Sink: sink}, "test")
		require.NotNil(t, log)
		require.Contains(t, buf.String(), "open sink")
		require.Contains(t, buf.String(), sink)
	})

	t.Run("file sink", func(t *testing.T) {
		buf.Reset()
		sink := filepath.Join(t.TempDir(), "library.log")
		log := NewLogger(Log{LogLevel: zapcore.InfoLevel, Sink: sink}, "test")
		log.Info("hello")
		require.NoError(t, log.Sync())
		require.Empty(t, buf.String())

		data, err := os.ReadFile(sink)
		require.NoError(t, err)
		require.Contains(t, string(data), `"msg":"hello"`)
		require.Contains(t, string(data), `"logger":"test"`)
	})
}
