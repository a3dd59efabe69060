package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
}

func TestNewLoggerWithFileWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "instaposter.log")

	logger, closer := NewLoggerWithFile("info", path)
	logger.WithField("run_id", "abc").Info("workflow finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workflow finished")
	assert.Contains(t, string(data), "run_id=abc")
}
