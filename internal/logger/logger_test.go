package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	var buf bytes.Buffer
	l := New(&buf)
	l.WithField("orderID", 42).Debug("hidden")
	l.WithField("orderID", 42).Info("order completed")

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order completed", entry["msg"])
	assert.InDelta(t, 42, entry["orderID"], 0)
}

func TestNewDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "")

	l := New(&bytes.Buffer{})

	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, new(logrus.TextFormatter), l.Formatter)
}
