package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", false)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	l.WithField("users", 3).Info("loaded")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "users=3")
}

func TestNewFallsBackToWarn(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, NewWithWriter(&bytes.Buffer{}, "loud", false).GetLevel())
}

func TestDebugOverridesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewWithWriter(&bytes.Buffer{}, "error", true).GetLevel())
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("info"))
	assert.False(t, ValidLevel("chatty"))
}
