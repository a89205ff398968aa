package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/api-service/internal/logging"
)

func TestNewWithOutput_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWithOutput(&buf, "warn", "json")

	l.Info("dropped")
	logging.Component(l, "jobs").Warn("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "jobs", line["component"])
}

func TestNewWithOutput_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := logging.NewWithOutput(&bytes.Buffer{}, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestFromContext(t *testing.T) {
	l := logging.Discard()
	e := l.WithField("request_id", "abc")

	ctx := logging.WithEntry(context.Background(), e)
	assert.Equal(t, "abc", logging.FromContext(ctx, l).Data["request_id"])

	assert.NotNil(t, logging.FromContext(context.Background(), l))
}
