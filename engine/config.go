package engine

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape LoadConfig parses: YAML-sourced defaults
// for EngineOptions and SessionOptions, per SPEC_FULL.md's engine.LoadConfig
// supplemental feature, grounded on the corpus's preference for
// gopkg.in/yaml.v3 over encoding/json for operator-facing config files.
type FileConfig struct {
	Engine  EngineFileConfig  `yaml:"engine"`
	Session SessionFileConfig `yaml:"session"`
}

// EngineFileConfig mirrors EngineOptions' YAML-friendly fields.
type EngineFileConfig struct {
	PoolCachesPerKey int   `yaml:"pool_caches_per_key"`
	MaxSessions      int   `yaml:"max_sessions"`
	TotalKVCacheMax  int64 `yaml:"total_kv_cache_max_bytes"`
}

// SessionFileConfig mirrors SessionOptions' YAML-friendly fields (pointer
// fields from SessionOptions are expressed as zero-meaning-unset here,
// since a config file has no way to express "nil" versus "the zero
// value").
type SessionFileConfig struct {
	EnableKVCache     *bool    `yaml:"enable_kv_cache"`
	MaxKVCacheTokens  int      `yaml:"max_kv_cache_tokens"`
	PerSessionKVBytes int64    `yaml:"per_session_kv_bytes"`
	MaxNewTokens      int      `yaml:"max_new_tokens"`
	Temperature       float32  `yaml:"temperature"`
	TopK              int      `yaml:"top_k"`
	TopP              float32  `yaml:"top_p"`
	RepetitionPenalty float32  `yaml:"repetition_penalty"`
	RepetitionWindow  int      `yaml:"repetition_window"`
	StopSequences     []string `yaml:"stop_sequences"`
	ContextPolicy     string   `yaml:"context_policy"`
	ContextPolicyN    int      `yaml:"context_policy_n"`
	ContextPolicyMax  int      `yaml:"context_policy_max_tokens"`
	TimeoutMS         int64    `yaml:"timeout_ms"`
	Deterministic     *bool    `yaml:"deterministic"`
}

// LoadConfig reads a YAML file at path and overlays it onto
// DefaultEngineOptions/DefaultSessionOptions, so a config file only needs
// to name the keys it wants to override.
func LoadConfig(path string) (EngineOptions, SessionOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineOptions{}, SessionOptions{}, err
	}
	return ParseConfig(data)
}

// ParseConfig behaves like LoadConfig but takes already-read YAML bytes.
func ParseConfig(data []byte) (EngineOptions, SessionOptions, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return EngineOptions{}, SessionOptions{}, err
	}

	eo := DefaultEngineOptions()
	if fc.Engine.PoolCachesPerKey > 0 {
		eo.PoolCachesPerKey = fc.Engine.PoolCachesPerKey
	}
	if fc.Engine.MaxSessions > 0 {
		eo.MaxSessions = fc.Engine.MaxSessions
	}
	if fc.Engine.TotalKVCacheMax > 0 {
		eo.TotalKVCacheMax = fc.Engine.TotalKVCacheMax
	}

	so := DefaultSessionOptions()
	if fc.Session.EnableKVCache != nil {
		so.EnableKVCache = *fc.Session.EnableKVCache
	}
	if fc.Session.MaxKVCacheTokens > 0 {
		so.MaxKVCacheTokens = &fc.Session.MaxKVCacheTokens
	}
	if fc.Session.PerSessionKVBytes > 0 {
		so.PerSessionKVBytes = &fc.Session.PerSessionKVBytes
	}
	if fc.Session.MaxNewTokens > 0 {
		so.MaxNewTokens = fc.Session.MaxNewTokens
	}
	if fc.Session.Temperature > 0 {
		so.Temperature = fc.Session.Temperature
	}
	if fc.Session.TopK > 0 {
		so.TopK = fc.Session.TopK
	}
	if fc.Session.TopP > 0 {
		so.TopP = fc.Session.TopP
	}
	if fc.Session.RepetitionPenalty > 0 {
		so.RepetitionPenalty = fc.Session.RepetitionPenalty
	}
	if fc.Session.RepetitionWindow > 0 {
		so.RepetitionWindow = fc.Session.RepetitionWindow
	}
	so.StopSequences = fc.Session.StopSequences
	if fc.Session.ContextPolicy != "" {
		so.ContextPolicy = fc.Session.ContextPolicy
	}
	so.ContextPolicyN = fc.Session.ContextPolicyN
	so.ContextPolicyMax = fc.Session.ContextPolicyMax
	if fc.Session.TimeoutMS > 0 {
		so.TimeoutMS = &fc.Session.TimeoutMS
	}
	if fc.Session.Deterministic != nil {
		so.Deterministic = *fc.Session.Deterministic
	}

	return eo, so, nil
}
