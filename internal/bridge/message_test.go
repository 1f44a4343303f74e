package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/aurora-visualizer/internal/dsp"
)

func TestEncodeDecodeAudio(t *testing.T) {
	features := dsp.Features{Bass: 0.5, Mid: 0.25, High: 0.1, Overall: 0.2833}

	line, err := Encode(TypeAudio, features)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(line), lineEnding))

	env, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, TypeAudio, env.Type)

	decoded, err := DecodeAudio(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, features, decoded)
}

func TestEncodeDecodeSettings(t *testing.T) {
	snapshot := map[string]any{"bassSensitivity": 2.0, "scene": "flowing-points", "showStats": true}

	line, err := Encode(TypeSettings, snapshot)
	require.NoError(t, err)

	env, err := Decode(line)
	require.NoError(t, err)
	require.Equal(t, TypeSettings, env.Type)

	decoded, err := DecodeSettings(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)
}

func TestEncodeError(t *testing.T) {
	_, err := Encode(TypeSettings, map[string]any{"bad": make(chan int)})

	assert.Error(t, err)
}

func TestDecodeMalformedLine(t *testing.T) {
	_, err := Decode([]byte("{not json"))

	assert.Error(t, err)
}
