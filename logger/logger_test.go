package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/placerank/config"
)

func TestNew_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)

	log.Info().Msg("dropped")
	log.Warn().Str("keyword", "coffee").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "coffee", entry["keyword"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	log := New(&bytes.Buffer{}, config.LogConfig{Level: "error"}, true)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel(" error "))
}

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := Default
	t.Cleanup(func() { Default = prev })

	Default = New(&buf, config.LogConfig{Level: "info"}, false)
	l := For("hybrid")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"hybrid"`)
}
