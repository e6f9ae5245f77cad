package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverlaysOnDefaults(t *testing.T) {
	yamlDoc := []byte(`
engine:
  max_sessions: 10
session:
  temperature: 0.2
  top_k: 5
  context_policy: sliding_window
  context_policy_max_tokens: 512
`)
	eo, so, err := ParseConfig(yamlDoc)
	require.NoError(t, err)

	assert.Equal(t, 10, eo.MaxSessions)
	assert.Equal(t, DefaultEngineOptions().PoolCachesPerKey, eo.PoolCachesPerKey)

	assert.Equal(t, float32(0.2), so.Temperature)
	assert.Equal(t, 5, so.TopK)
	assert.Equal(t, "sliding_window", so.ContextPolicy)
	assert.Equal(t, 512, so.ContextPolicyMax)
	assert.True(t, so.EnableKVCache, "absent enable_kv_cache key must keep the documented default of true")
}

func TestParseConfigEmptyDocumentKeepsDefaults(t *testing.T) {
	eo, so, err := ParseConfig([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineOptions(), eo)
	assert.Equal(t, DefaultSessionOptions(), so)
}

func TestParseConfigRejectsMalformedYAML(t *testing.T) {
	_, _, err := ParseConfig([]byte("engine: [this is not a mapping"))
	assert.Error(t, err)
}
