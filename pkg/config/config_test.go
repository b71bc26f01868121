package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwall/promptwall/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoad_FromFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9999
log:
  level: debug
firewall:
  max_prompt_length: 4096
  batch_concurrency: 4
  policy_file: config/policies.yaml
scorer:
  enabled: true
  base_url: http://scorer:9090
  timeout_ms: 500
  blend_mode: weighted
  weight: 0.3
audit:
  enabled: true
  backend: jsonl
  dir: /var/log/promptwall
`)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4096, cfg.Firewall.MaxPromptLength)
	assert.Equal(t, 4, cfg.Firewall.BatchConcurrency)
	assert.True(t, cfg.Scorer.Enabled)
	assert.Equal(t, "weighted", cfg.Scorer.BlendMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Scorer.Timeout())
	assert.Equal(t, "/var/log/promptwall", cfg.Audit.Dir)
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, "server:\n  host: 0.0.0.0\n")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8192, cfg.Firewall.MaxPromptLength)
	assert.Equal(t, 8, cfg.Firewall.BatchConcurrency)
	assert.Equal(t, "jsonl", cfg.Audit.Backend)
	assert.Equal(t, "max", cfg.Scorer.BlendMode)
	assert.Equal(t, 0.5, cfg.Scorer.Weight)
	assert.Equal(t, 2*time.Second, cfg.Scorer.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Scorer.BreakerResetTimeout())
	assert.Equal(t, uint32(5), cfg.Scorer.BreakerMaxFailures)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "server: [not a map\n")

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policies:
  - name: block_critical_threats
    action: block
    severity: critical
    threshold: 0.85
  - name: allow_rest
    enabled: false
    action: allow
    severity: safe
    threshold: 0
    priority: 10
`), 0o644))

	defs, err := config.LoadPolicyFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "block_critical_threats", defs[0].Name)
	assert.Equal(t, "block", defs[0].Action)
	assert.Equal(t, 0.85, defs[0].Threshold)
	assert.Nil(t, defs[0].Enabled)
	assert.Nil(t, defs[0].Priority)

	require.NotNil(t, defs[1].Enabled)
	assert.False(t, *defs[1].Enabled)
	require.NotNil(t, defs[1].Priority)
	assert.Equal(t, 10, *defs[1].Priority)
}

func TestLoadPolicyFile_Missing(t *testing.T) {
	_, err := config.LoadPolicyFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPolicyFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policies: []\n"), 0o644))

	_, err := config.LoadPolicyFile(path)
	assert.Error(t, err)
}
