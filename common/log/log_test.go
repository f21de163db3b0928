package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/guarzo/discordauth/common/log"
)

func TestNewLogger(t *testing.T) {
	logger, err := log.NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = log.NewLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := log.NewLogger("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log.Component(zap.New(core), "callback").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "callback", logs.All()[0].ContextMap()[log.ComponentKey])

	// nil logger is tolerated
	log.Component(nil, "x").Info("dropped")
}
