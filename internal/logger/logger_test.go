package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parcl.log")
	log, err := Init(Config{Level: "debug", OutputFile: path, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	log.WithField("market", 23).Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "market=23")
}

func TestInitUnknownLevel(t *testing.T) {
	log, err := Init(Config{Level: "loud"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
