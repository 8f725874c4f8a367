package database

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormLogsAsZerologJSON(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	zerologWriter{}.Printf("%s\n[%.3fms] [rows:%v] %s", "jobs.go:42", 512.0, 1, "SELECT * FROM jobs")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "database/gorm", line["op"])
	assert.Contains(t, line["message"], "SELECT * FROM jobs")
}

func TestGormLoggerIsWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	l := newGormLogger()
	l.Info(t.Context(), "migrating %s", "jobs")
	assert.Empty(t, buf.String(), "info messages are below the gorm level")

	l.Warn(t.Context(), "slow migration on %s", "jobs")
	assert.Contains(t, buf.String(), "slow migration on jobs")
}
