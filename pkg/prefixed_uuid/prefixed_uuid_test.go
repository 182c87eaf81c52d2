package prefixed_uuid

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	id := New("conv")

	assert.Equal(t, "conv", id.Prefix)
	assert.True(t, strings.HasPrefix(id.String(), "conv-"))
	assert.False(t, id.IsZero())
}

func TestFromStringRoundTrip(t *testing.T) {
	original := New("msg")

	parsed, err := FromString(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
	assert.Equal(t, original.RawUUID(), parsed.RawUUID())
}

func TestFromStringInvalid(t *testing.T) {
	_, err := FromString("noprefix")
	assert.Error(t, err)

	_, err = FromString("prefix-notauuid")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	original := New("usr")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+original.String()+`"`, string(data))

	var decoded PrefixedUUID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	var decoded PrefixedUUID
	assert.Error(t, json.Unmarshal([]byte(`"garbage"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`42`), &decoded))
}

func TestIsZero(t *testing.T) {
	var zero PrefixedUUID
	assert.True(t, zero.IsZero())
}
